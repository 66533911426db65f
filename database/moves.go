package database

import (
	"fmt"
	"time"

	"rustbot/models"
)

// RecordMove appends one completed relocation to the audit log.
func (s *Store) RecordMove(guildID, sourceID, destinationID, initiatorID string, messageCount int) error {
	query := `
    INSERT INTO moves (guild_id, source_channel_id, destination_id, initiator_id, message_count, timestamp)
    VALUES (?, ?, ?, ?, ?, ?);`

	_, err := s.db.Exec(query, guildID, sourceID, destinationID, initiatorID, messageCount, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert move record: %w", err)
	}
	return nil
}

// RecentMoves returns the latest audit entries, newest first.
func (s *Store) RecentMoves(limit int) ([]models.MoveRecord, error) {
	query := `
    SELECT guild_id, source_channel_id, destination_id, initiator_id, message_count, timestamp
    FROM moves ORDER BY db_id DESC LIMIT ?;`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query move records: %w", err)
	}
	defer rows.Close()

	var records []models.MoveRecord
	for rows.Next() {
		var r models.MoveRecord
		if err := rows.Scan(&r.GuildID, &r.SourceChannelID, &r.DestinationID, &r.InitiatorID, &r.MessageCount, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan move record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
