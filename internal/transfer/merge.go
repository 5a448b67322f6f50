package transfer

import (
	"time"

	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
	"OTPKeeper/internal/vault"
)

// ConflictMarker дописывается к issuer импортируемой записи, чья
// идентичность занята записью с другим секретом.
const ConflictMarker = "!"

// Merge дописывает incoming к current. Записи с совпадающими идентичностью
// и секретом пропускаются; при совпадении идентичности с другим секретом
// запись добавляется под issuer+"!". Порядок и содержимое current не
// меняются. Второй результат — число конфликтов.
func Merge(current []model.Account, incoming []ImportedEntry, c vault.Cipher, now time.Time) ([]model.Account, int, error) {
	out := append([]model.Account(nil), current...)
	conflicts := 0

	for _, in := range incoming {
		issuer := in.Record.Issuer()
		secret := otp.NormalizeSecret(in.Record.Secret())
		conflicted := false
		skip := false

		for {
			i := indexOf(out, model.Identity{Issuer: issuer, Label: in.Record.Label()})
			if i < 0 {
				break
			}
			plain, err := out[i].PlainSecret(c)
			if err != nil {
				return nil, 0, err
			}
			if otp.NormalizeSecret(plain) == secret {
				skip = true
				break
			}
			issuer += ConflictMarker
			conflicted = true
		}
		if skip {
			continue
		}
		if conflicted {
			conflicts++
		}

		used := now
		if in.LastUsed != nil {
			used = in.LastUsed.Time
		}
		acct, err := model.NewOtpRecord(issuer, in.Record.Label(), secret).Seal(c, used)
		if err != nil {
			return nil, 0, err
		}
		acct.UsedFrequency = in.UsedFrequency
		acct.Favorite = in.Favorite
		acct.Icon = in.Icon
		out = append(out, acct)
	}
	return out, conflicts, nil
}

func indexOf(list []model.Account, id model.Identity) int {
	for i, a := range list {
		if a.Identity() == id {
			return i
		}
	}
	return -1
}
