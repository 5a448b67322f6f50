package otp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"OTPKeeper/internal/model"
)

// Scheme — схема URI для настройки аккаунта.
const Scheme = "otpauth"

// ErrInvalidURI совпадает (errors.Is) с любой URIError.
var ErrInvalidURI = errors.New("invalid otpauth uri")

// URIError описывает причину отказа в разборе URI. Поле URI может содержать
// секрет, поэтому в Error не выводится.
type URIError struct {
	URI    string
	Reason string
}

func (e *URIError) Error() string { return ErrInvalidURI.Error() + ": " + e.Reason }

func (e *URIError) Unwrap() error { return ErrInvalidURI }

func reject(uri, format string, args ...any) error {
	return &URIError{URI: uri, Reason: fmt.Sprintf(format, args...)}
}

// ParseURI принимает otpauth://totp/<issuer>:<label>?secret=..&issuer=..
// и возвращает подготовленную запись. Любая другая форма даёт *URIError.
func ParseURI(raw string) (model.OtpRecord, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return model.OtpRecord{}, reject(raw, "malformed uri")
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return model.OtpRecord{}, reject(raw, "scheme %q is not otpauth", u.Scheme)
	}
	if !strings.EqualFold(u.Host, "totp") {
		return model.OtpRecord{}, reject(raw, "type %q is not totp", u.Host)
	}

	q := u.Query()
	issuer := strings.TrimSpace(q.Get("issuer"))
	if issuer == "" {
		return model.OtpRecord{}, reject(raw, "missing issuer")
	}
	if strings.Contains(issuer, ":") {
		return model.OtpRecord{}, reject(raw, "issuer contains ':'")
	}

	label := strings.TrimPrefix(u.Path, "/")
	if _, rest, ok := strings.Cut(label, ":"); ok {
		label = rest
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return model.OtpRecord{}, reject(raw, "missing label")
	}

	secret := q.Get("secret")
	if !IsValidSecretKey(secret) {
		return model.OtpRecord{}, reject(raw, "secret is not a valid base32 key")
	}
	if q.Has("digits") && q.Get("digits") != strconv.Itoa(Digits) {
		return model.OtpRecord{}, reject(raw, "digits=%s not supported", q.Get("digits"))
	}
	if q.Has("period") {
		p, err := strconv.Atoi(q.Get("period"))
		if err != nil || p != Period {
			return model.OtpRecord{}, reject(raw, "period=%s not supported", q.Get("period"))
		}
	}
	if q.Has("algorithm") && !strings.EqualFold(q.Get("algorithm"), "SHA1") {
		return model.OtpRecord{}, reject(raw, "algorithm=%s not supported", q.Get("algorithm"))
	}

	return model.NewOtpRecord(issuer, label, NormalizeSecret(secret)), nil
}

// ToURI формирует otpauth://totp/<issuer>:<label>?secret=<s>&issuer=<issuer>.
// Все компоненты экранируются.
func ToURI(issuer, label, secret string) string {
	return fmt.Sprintf("%s://totp/%s:%s?secret=%s&issuer=%s",
		Scheme, escape(issuer), escape(label), escape(secret), escape(issuer))
}

// AccountURI расшифровывает секрет аккаунта и формирует его URI.
func AccountURI(a model.Account, opener model.SecretOpener) (string, error) {
	plain, err := a.PlainSecret(opener)
	if err != nil {
		return "", err
	}
	return ToURI(a.Issuer, a.Label, plain), nil
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
