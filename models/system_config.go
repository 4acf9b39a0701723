package models

// SystemConfig represents key-value configuration settings such as the
// minimum number of completed reviews required before an editorial decision.
type SystemConfig struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

// TableName specifies the table name for GORM
func (SystemConfig) TableName() string {
	return "system_config"
}
