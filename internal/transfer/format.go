package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
)

// Format — формат открытого экспорта.
type Format string

const (
	FormatJSON Format = "json"
	FormatURI  Format = "uri"
)

// ParseFormat принимает "json" или "uri" без учёта регистра.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatURI:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or uri)", s)
	}
}

// ImportedEntry — разобранная запись импорта: открытая заготовка и
// необязательные поля Account из файла.
type ImportedEntry struct {
	Record        model.OtpRecord
	LastUsed      *model.Timestamp
	UsedFrequency int
	Favorite      bool
	Icon          *string
}

// DetectFormat смотрит на первый непробельный токен data.
func DetectFormat(data []byte) Format {
	head := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(head) >= len(otp.Scheme) && strings.EqualFold(string(head[:len(otp.Scheme)]), otp.Scheme) {
		return FormatURI
	}
	return FormatJSON
}

// ParseImport разбирает файл импорта в любом из форматов.
func ParseImport(data []byte) ([]ImportedEntry, error) {
	if DetectFormat(data) == FormatURI {
		return parseURIList(data)
	}
	return parseJSONList(data)
}

func parseURIList(data []byte) ([]ImportedEntry, error) {
	var out []ImportedEntry
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, err := otp.ParseURI(line)
		if err != nil {
			return nil, fail(StatusURIParse, fmt.Errorf("line %d: %w", n+1, err))
		}
		out = append(out, ImportedEntry{Record: rec})
	}
	return out, nil
}

type jsonEntry struct {
	Issuer        *string          `json:"issuer"`
	Label         *string          `json:"label"`
	Secret        *string          `json:"secret"`
	LastUsed      *model.Timestamp `json:"last_used"`
	UsedFrequency int              `json:"used_frequency"`
	Favorite      bool             `json:"favorite"`
	Icon          *string          `json:"icon"`
}

func parseJSONList(data []byte) ([]ImportedEntry, error) {
	var raw []jsonEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fail(StatusJSONParse, err)
	}
	out := make([]ImportedEntry, 0, len(raw))
	for i, e := range raw {
		if e.Issuer == nil || e.Label == nil || e.Secret == nil ||
			*e.Issuer == "" || *e.Label == "" || *e.Secret == "" {
			return nil, fail(StatusJSONParse, fmt.Errorf("entry %d: %w", i, model.ErrEmptyField))
		}
		if strings.Contains(*e.Issuer, ":") {
			return nil, fail(StatusJSONParse, fmt.Errorf("entry %d: issuer contains ':'", i))
		}
		if !otp.IsValidSecretKey(*e.Secret) {
			return nil, fail(StatusJSONParse, fmt.Errorf("entry %d: %w", i, model.ErrInvalidSecret))
		}
		if e.UsedFrequency < 0 {
			return nil, fail(StatusJSONParse, fmt.Errorf("entry %d: negative used_frequency", i))
		}
		out = append(out, ImportedEntry{
			Record:        model.NewOtpRecord(*e.Issuer, *e.Label, otp.NormalizeSecret(*e.Secret)),
			LastUsed:      e.LastUsed,
			UsedFrequency: e.UsedFrequency,
			Favorite:      e.Favorite,
			Icon:          e.Icon,
		})
	}
	return out, nil
}
