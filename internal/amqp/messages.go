package amqp

import (
	"encoding/json"
	"time"
)

// DatasetRefreshMessage announces that a new snapshot was ingested. It
// carries only the snapshot id and span; consumers fetch the full
// dataset from the snapshot database.
type DatasetRefreshMessage struct {
	SnapshotID int64     `json:"snapshot_id"`
	Source     string    `json:"source"`
	FromPeriod string    `json:"from_period"`
	ToPeriod   string    `json:"to_period"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewDatasetRefreshMessage(snapshotID int64, source, fromPeriod, toPeriod string) *DatasetRefreshMessage {
	return &DatasetRefreshMessage{
		SnapshotID: snapshotID,
		Source:     source,
		FromPeriod: fromPeriod,
		ToPeriod:   toPeriod,
		Timestamp:  time.Now(),
	}
}

func (m *DatasetRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetRefreshMessageFromJSON(data []byte) (*DatasetRefreshMessage, error) {
	var msg DatasetRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
