package models

type MediaType string

const (
	MediaImage    MediaType = "IMAGE"
	MediaVideo    MediaType = "VIDEO"
	MediaDocument MediaType = "DOCUMENT"
	MediaAudio    MediaType = "AUDIO"
	MediaOther    MediaType = "OTHER"
)

// MediaTypes lists every media type in display order.
var MediaTypes = []MediaType{MediaImage, MediaVideo, MediaDocument, MediaAudio, MediaOther}

func (t MediaType) Valid() bool {
	for _, v := range MediaTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Media is an uploaded file in the media library.
type Media struct {
	Base
	Type         MediaType `json:"type"         gorm:"size:16;not null;index"`
	OriginalName string    `json:"originalName" gorm:"not null"`
	FileName     string    `json:"fileName"     gorm:"size:191;uniqueIndex;not null"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	Alt          string    `json:"alt"`
	Title        string    `json:"title"`
	UploaderID   string    `json:"uploaderId"   gorm:"type:char(36);index;not null"`
}

func (Media) TableName() string { return "media" }
