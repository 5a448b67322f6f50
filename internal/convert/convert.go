// Package convert переводит хранилища v0 (голый массив) в конверт версии 1.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"OTPKeeper/internal/filex"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/vault"
)

// ErrAlreadyV1 возвращается, если вход уже в конверте.
var ErrAlreadyV1 = errors.New("vault is already v1")

// ConvertV0 оборачивает голый массив записей в {"vault":{"version":"1",...}}
// и проставляет каждой записи icon: null. Секреты переносятся без изменений.
func ConvertV0(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var head struct {
			Vault json.RawMessage `json:"vault"`
		}
		if json.Unmarshal(trimmed, &head) == nil && head.Vault != nil {
			return nil, ErrAlreadyV1
		}
	}

	var entries []model.Account
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrParse, err)
	}
	for i := range entries {
		if entries[i].Issuer == "" || entries[i].Label == "" || entries[i].Secret == "" {
			return nil, fmt.Errorf("%w: entry %d lacks issuer, label or secret", vault.ErrParse, i)
		}
		entries[i].Icon = nil
	}
	return vault.EncodeVault(entries)
}

// File конвертирует хранилище v0 из in и пишет результат в out.
func File(in, out string) (int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return 0, err
	}
	converted, err := ConvertV0(data)
	if err != nil {
		return 0, err
	}
	if err := filex.WriteAtomic(out, converted); err != nil {
		return 0, err
	}
	var vf model.VaultFile
	if err := json.Unmarshal(converted, &vf); err != nil {
		return 0, err
	}
	return len(vf.Vault.Entries), nil
}
