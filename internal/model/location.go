package model

// LocationReport is the decoded view of a submitted report. Nil fields were
// absent (or null) in the payload; any other keys only live in the raw copy.
type LocationReport struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// LocationRecord is one row of location_data.
type LocationRecord struct {
	ID        int64    `db:"id" json:"id"`
	Name      *string  `db:"name" json:"name"`
	Latitude  *float64 `db:"latitude" json:"latitude"`
	Longitude *float64 `db:"longitude" json:"longitude"`
	Time      string   `db:"time" json:"time"` // YYYY-MM-DD, server receipt date
}

// MapPoint is the projection the reporting job reads back.
type MapPoint struct {
	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`
	Name      *string  `db:"name"`
}
