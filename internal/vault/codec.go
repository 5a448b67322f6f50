package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"OTPKeeper/internal/model"
)

// requiredFields обязательны в каждой записи; icon необязателен.
var requiredFields = []string{"issuer", "label", "secret", "last_used", "used_frequency", "favorite"}

type rawVault struct {
	Vault *struct {
		Version *string           `json:"version"`
		Entries []json.RawMessage `json:"entries"`
	} `json:"vault"`
}

// EncodeVault сериализует аккаунты в конверт v1 с отступом в 2 пробела.
func EncodeVault(accounts []model.Account) ([]byte, error) {
	return encode(model.NewVaultFile(accounts))
}

// EncodeEntries сериализует аккаунты голым массивом (форма резервной копии).
func EncodeEntries(accounts []model.Account) ([]byte, error) {
	if accounts == nil {
		accounts = []model.Account{}
	}
	return encode(accounts)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode vault: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeVault разбирает конверт v1 и проверяет каждую запись через opener.
func DecodeVault(data []byte, opener model.SecretOpener) ([]model.Account, error) {
	var raw rawVault
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if raw.Vault == nil {
		return nil, fmt.Errorf("%w: missing vault object", ErrParse)
	}
	if raw.Vault.Version == nil || *raw.Vault.Version != model.VaultVersion {
		return nil, ErrVersionMismatch
	}
	if raw.Vault.Entries == nil {
		return nil, fmt.Errorf("%w: missing entries", ErrParse)
	}
	return decodeEntries(raw.Vault.Entries, opener)
}

// DecodeEntries разбирает голый массив записей (дампы до v1 и резервные копии).
func DecodeEntries(data []byte, opener model.SecretOpener) ([]model.Account, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return decodeEntries(raws, opener)
}

// DecodeAny принимает и конверт, и голый массив.
func DecodeAny(data []byte, opener model.SecretOpener) ([]model.Account, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return DecodeEntries(data, opener)
	}
	return DecodeVault(data, opener)
}

func decodeEntries(raws []json.RawMessage, opener model.SecretOpener) ([]model.Account, error) {
	out := make([]model.Account, 0, len(raws))
	for i, r := range raws {
		a, err := decodeEntry(r, opener)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func decodeEntry(r json.RawMessage, opener model.SecretOpener) (model.Account, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return model.Account{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var missing []string
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return model.Account{}, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}

	var a model.Account
	if err := json.Unmarshal(r, &a); err != nil {
		return model.Account{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if a.Issuer == "" || a.Label == "" {
		return model.Account{}, fmt.Errorf("%w: empty issuer or label", ErrParse)
	}
	if err := a.Validate(opener); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// countEntries считает записи конверта v1 без расшифровки.
// Нечитаемые или битые данные дают ноль.
func countEntries(data []byte) int {
	var raw rawVault
	if err := json.Unmarshal(data, &raw); err != nil || raw.Vault == nil {
		return 0
	}
	return len(raw.Vault.Entries)
}
