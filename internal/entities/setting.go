package entities

type Setting struct {
	Key   string `gorm:"primaryKey;size:100" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingKeyLateFeePerDay = "late_fee_per_day"
	SettingKeySMTPHost      = "smtp_host"
	SettingKeySMTPPort      = "smtp_port"
	SettingKeySMTPUser      = "smtp_user"
	SettingKeySMTPPassword  = "smtp_password"
)

// DefaultSettings are written on schema initialisation only when the key is absent.
var DefaultSettings = []Setting{
	{Key: SettingKeyLateFeePerDay, Value: "0.50"},
	{Key: SettingKeySMTPHost, Value: ""},
	{Key: SettingKeySMTPPort, Value: "587"},
	{Key: SettingKeySMTPUser, Value: ""},
	{Key: SettingKeySMTPPassword, Value: ""},
}
