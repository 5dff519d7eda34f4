// Package boltstore persists custom rules and preset group overrides in a
// local bbolt database.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/gofrs/uuid/v5"
	"github.com/metacubex/bbolt"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	fileMode os.FileMode = 0o666

	bucketRules  = []byte("rules")
	bucketGroups = []byte("rule-groups")
)

type Option struct {
	// Catalog is the preset group list; stored overrides apply on top.
	Catalog       []R.RuleGroup
	Filters       []R.Filter
	CountryGroups []R.CountryGroup
}

type groupOverride struct {
	Outbound string `json:"outbound"`
	Enabled  bool   `json:"enabled"`
}

// Store implements rules.Store. Rule keys are time ordered UUIDs, so a
// cursor walk yields creation order.
type Store struct {
	db            *bbolt.DB
	catalog       []R.RuleGroup
	filters       []R.Filter
	countryGroups []R.CountryGroup
}

func Open(path string, option Option) (*Store, error) {
	db, err := bbolt.Open(path, fileMode, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open rule database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRules); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketGroups)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	catalog := option.Catalog
	if catalog == nil {
		catalog = R.DefaultRuleGroups()
	}
	log.Infoln("[Store] open rule database at %s", path)
	return &Store{
		db:            db,
		catalog:       catalog,
		filters:       option.Filters,
		countryGroups: option.CountryGroups,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RuleGroups(ctx context.Context) ([]R.RuleGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := orderedmap.New[string, R.RuleGroup](len(s.catalog))
	for _, group := range s.catalog {
		groups.Set(group.ID, group.Clone())
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketGroups).ForEach(func(k, v []byte) error {
			group, ok := groups.Get(string(k))
			if !ok {
				log.Debugln("[Store] skip override of unknown rule group %s", k)
				return nil
			}
			var override groupOverride
			if err := json.Unmarshal(v, &override); err != nil {
				log.Warnln("[Store] decode rule group %s failed: %s", k, err.Error())
				return nil
			}
			group.Outbound = override.Outbound
			group.Enabled = override.Enabled
			groups.Set(group.ID, group)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	result := make([]R.RuleGroup, 0, groups.Len())
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result, nil
}

func (s *Store) updateGroup(ctx context.Context, id string, fn func(*groupOverride)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var current *R.RuleGroup
	for i := range s.catalog {
		if s.catalog[i].ID == id {
			current = &s.catalog[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("rule group %s: %w", id, R.ErrNotFound)
	}

	return s.db.Batch(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketGroups)
		override := groupOverride{Outbound: current.Outbound, Enabled: current.Enabled}
		if buf := bucket.Get([]byte(id)); buf != nil {
			if err := json.Unmarshal(buf, &override); err != nil {
				return err
			}
		}
		fn(&override)
		buf, err := json.Marshal(override)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), buf)
	})
}

func (s *Store) ToggleRuleGroup(ctx context.Context, id string, enabled bool) error {
	return s.updateGroup(ctx, id, func(o *groupOverride) {
		o.Enabled = enabled
	})
}

func (s *Store) UpdateRuleGroupOutbound(ctx context.Context, id string, outbound string) error {
	if outbound == "" {
		return fmt.Errorf("rule group %s: %w", id, R.ErrNoOutbound)
	}
	return s.updateGroup(ctx, id, func(o *groupOverride) {
		o.Outbound = outbound
	})
}

func (s *Store) Rules(ctx context.Context) ([]R.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rules := []R.Rule{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRules).ForEach(func(k, v []byte) error {
			var rule R.Rule
			if err := json.Unmarshal(v, &rule); err != nil {
				log.Warnln("[Store] decode rule %s failed: %s", k, err.Error())
				return nil
			}
			rule.ID = string(k)
			rules = append(rules, rule)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) AddRule(ctx context.Context, rule R.Rule) (*R.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rule = rule.Clone()
	rule.Values = R.NormalizeValues(rule.Values)
	if err := rule.Verify(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	rule.ID = id.String()

	buf, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	err = s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRules).Put([]byte(rule.ID), buf)
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule replaces every field of an existing rule. The id argument
// wins over rule.ID.
func (s *Store) UpdateRule(ctx context.Context, id string, rule R.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rule = rule.Clone()
	rule.ID = id
	rule.Values = R.NormalizeValues(rule.Values)
	if err := rule.Verify(); err != nil {
		return err
	}

	buf, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	return s.db.Batch(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRules)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("rule %s: %w", id, R.ErrNotFound)
		}
		return bucket.Put([]byte(id), buf)
	})
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Batch(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRules)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("rule %s: %w", id, R.ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

func (s *Store) Filters(ctx context.Context) ([]R.Filter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]R.Filter{}, s.filters...), nil
}

func (s *Store) CountryGroups(ctx context.Context) ([]R.CountryGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]R.CountryGroup{}, s.countryGroups...), nil
}
