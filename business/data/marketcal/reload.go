package marketcal

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReloadNotice announces that a DataSet has been saved and replaced the previous one
type ReloadNotice struct {
	DataSetId int64     `json:"data_set_id"`
	SavedAt   time.Time `json:"saved_at"`
}

// MakeReloadNotice builds the ReloadNotice of a saved DataSet
func MakeReloadNotice(ds *DataSet) (*ReloadNotice, error) {
	if ds.SavedAt == nil {
		return nil, fmt.Errorf("data set %d has not been saved", ds.Id)
	}
	return &ReloadNotice{
		DataSetId: ds.Id,
		SavedAt:   *ds.SavedAt,
	}, nil
}

// ParseReloadNotice decodes a ReloadNotice from json
func ParseReloadNotice(data []byte) (*ReloadNotice, error) {
	notice := ReloadNotice{}
	if err := json.Unmarshal(data, &notice); err != nil {
		return nil, fmt.Errorf("unable to parse reload notice: %w", err)
	}
	return &notice, nil
}
