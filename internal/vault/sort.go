package vault

import (
	"cmp"
	"slices"
	"strings"

	"OTPKeeper/internal/model"
)

// SortAlphabetically упорядочивает по issuer без учёта регистра, устойчиво.
func (e *Engine) SortAlphabetically() error {
	return e.sortBy(func(a, b model.Account) int {
		return strings.Compare(strings.ToLower(a.Issuer), strings.ToLower(b.Issuer))
	})
}

// SortRecency ставит первыми недавно использованные записи.
func (e *Engine) SortRecency() error {
	return e.sortBy(func(a, b model.Account) int {
		return b.LastUsed.Compare(a.LastUsed.Time)
	})
}

// SortFrequency ставит первыми самые используемые записи.
func (e *Engine) SortFrequency() error {
	return e.sortBy(func(a, b model.Account) int {
		return cmp.Compare(b.UsedFrequency, a.UsedFrequency)
	})
}

func (e *Engine) sortBy(order func(a, b model.Account) int) error {
	_, err := e.mutate(func(list []model.Account) ([]model.Account, bool, error) {
		slices.SortStableFunc(list, order)
		return list, true, nil
	})
	return err
}
