package dto

// DiskFile is one entry of the raw download-directory listing.
type DiskFile struct {
	Name       string `json:"name"`
	SizeMB     int64  `json:"size_mb"`
	ModifiedAt int64  `json:"modified_at"`
}

// SettingRequest sets one application setting.
type SettingRequest struct {
	Value interface{} `json:"value" binding:"required"`
}
