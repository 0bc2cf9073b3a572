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

// AddRawURLs records discovered URLs for a root, returning how many
// rows were actually new. Duplicate (url, root) pairs are ignored.
// Inserts are batched to stay under SQLite's SQL variable limit.
func (s *Store) AddRawURLs(raws []RawURL) (int, error) {
	if len(raws) == 0 {
		return 0, nil
	}

	const batchSize = 100

	inserted := 0
	for i := 0; i < len(raws); i += batchSize {
		end := i + batchSize
		if end > len(raws) {
			end = len(raws)
		}
		batch := raws[i:end]

		res := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}, {Name: "root"}},
			DoNothing: true,
		}).Create(&batch)
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}

	return inserted, nil
}

// ListRawURLs returns raw URL rows for a root ("" = all).
func (s *Store) ListRawURLs(root string) ([]RawURL, error) {
	var raws []RawURL
	q := s.db.Order("id ASC")
	if root != "" {
		q = q.Where("root = ?", root)
	}
	if err := q.Find(&raws).Error; err != nil {
		return nil, err
	}
	return raws, nil
}
