// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"gorm.io/gorm/clause"
)

// UpsertQueueEntry inserts a queue row if the URL is new. Existing rows
// keep their status — discovery must not regress a hydrated entry back
// to queued.
func (s *Store) UpsertQueueEntry(entry *QueueEntry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(entry).Error
}

// ListQueueEntries returns the queue rows for the given URLs, or every
// row when urls is empty.
func (s *Store) ListQueueEntries(urls []string) ([]QueueEntry, error) {
	var entries []QueueEntry
	q := s.db.Order("id ASC")
	if len(urls) > 0 {
		q = q.Where("url IN ?", urls)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SetQueueStatus forces the status of a URL's queue entry, creating the
// entry if it does not exist. Used by the resolver when consolidating a
// canonical group.
func (s *Store) SetQueueStatus(url, discoveredFrom, status string) error {
	entry := QueueEntry{
		URL:            url,
		DiscoveredFrom: discoveredFrom,
		Status:         status,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&entry).Error
}

// DeleteQueueEntriesByURL removes queue rows for the given URLs.
func (s *Store) DeleteQueueEntriesByURL(urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	return s.db.Where("url IN ?", urls).Delete(&QueueEntry{}).Error
}

// QueueCounts returns the number of queue entries per status.
func (s *Store) QueueCounts() (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := s.db.Model(&QueueEntry{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
