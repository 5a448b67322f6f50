package model

// VaultVersion — единственная версия конверта, которую читает и пишет движок.
const VaultVersion = "1"

// VaultFile — форма файла на диске: {"vault":{"version":"1","entries":[...]}}.
type VaultFile struct {
	Vault VaultBody `json:"vault"`
}

// VaultBody — версионированный список записей.
type VaultBody struct {
	Version string    `json:"version"`
	Entries []Account `json:"entries"`
}

// NewVaultFile оборачивает записи в конверт v1; nil сериализуется как [].
func NewVaultFile(entries []Account) VaultFile {
	if entries == nil {
		entries = []Account{}
	}
	return VaultFile{Vault: VaultBody{Version: VaultVersion, Entries: entries}}
}
