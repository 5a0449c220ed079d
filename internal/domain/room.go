package domain

import "time"

// Room bundles a patient, an authorized user list and a set of uploaded
// 3D model files into one collaboration context.
type Room struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Name      string  `gorm:"type:varchar(191);not null"`
	CreatorID string  `gorm:"size:36;index;not null"`
	PatientID *string `gorm:"size:36;index"` // optional patient reference

	// Members is the authorized user list. The creator is always a member.
	Members []RoomMember `gorm:"foreignKey:RoomID"`
	// ModelFiles are ordered; the first position is the primary model
	// loaded by the viewer.
	ModelFiles []ModelFile `gorm:"foreignKey:RoomID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// RoomMember links a user to a room's authorized member list.
type RoomMember struct {
	RoomID    string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ModelFile is a reference to an uploaded 3D model binary. Upload and
// serving of the binary itself live outside this service.
type ModelFile struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomID    string    `gorm:"size:36;index;not null"`
	FileName  string    `gorm:"type:varchar(255);not null"`
	Position  int       `gorm:"not null"` // insertion order, 0 = primary model
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Patient is reference data attached to a room. Clinical details beyond a
// display name are managed by the surrounding CRUD application.
type Patient struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"type:varchar(191);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
