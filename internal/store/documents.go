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
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertDocument inserts a document row if the URL is new. Existing
// rows are left untouched, so re-discovering a URL is a no-op and
// never clobbers hydrated content.
func (s *Store) UpsertDocument(doc *Document) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(doc).Error
}

// ListDocuments returns all document rows, optionally restricted to a
// discovering root ("" = all). The resolver feeds this into grouping.
func (s *Store) ListDocuments(root string) ([]Document, error) {
	var docs []Document
	q := s.db.Order("id ASC")
	if root != "" {
		q = q.Where("root = ?", root)
	}
	if err := q.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument fetches a document by URL, or nil if absent.
func (s *Store) GetDocument(url string) (*Document, error) {
	var doc Document
	if err := s.db.Where("url = ?", url).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// SetDocumentContent records the outcome of hydrating a document: the
// fetched body, its HTTP status, a content fingerprint, and the fetch
// time. The winner comparator in the canon package orders documents by
// exactly these columns.
func (s *Store) SetDocumentContent(url string, status int, body, contentHash string) error {
	res := s.db.Model(&Document{}).Where("url = ?", url).Updates(map[string]interface{}{
		"status":       status,
		"body":         body,
		"content_hash": contentHash,
		"fetched_at":   time.Now().Unix(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RenameDocument moves a document to a new URL, recording the old URL
// as an alias. Returns gorm's duplicate-key error if the target URL is
// already occupied; the resolver handles that as a merge conflict.
func (s *Store) RenameDocument(id uint, oldURL, newURL string) error {
	var doc Document
	if err := s.db.First(&doc, id).Error; err != nil {
		return err
	}
	doc.URL = newURL
	doc.AddAliases(oldURL)
	if doc.URLOriginal == "" {
		doc.URLOriginal = oldURL
	}
	return s.db.Model(&Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"url":          doc.URL,
		"aliases":      doc.Aliases,
		"url_original": doc.URLOriginal,
	}).Error
}

// AbsorbAliases merges loser URLs into the surviving document's alias
// list without touching its content columns.
func (s *Store) AbsorbAliases(id uint, urls ...string) error {
	var doc Document
	if err := s.db.First(&doc, id).Error; err != nil {
		return err
	}
	doc.AddAliases(urls...)
	return s.db.Model(&Document{}).Where("id = ?", id).
		Update("aliases", doc.Aliases).Error
}

// DeleteDocument removes a document row by ID.
func (s *Store) DeleteDocument(id uint) error {
	return s.db.Delete(&Document{}, id).Error
}

// CountDocuments returns the number of document rows.
func (s *Store) CountDocuments() (int64, error) {
	var n int64
	err := s.db.Model(&Document{}).Count(&n).Error
	return n, err
}
