package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketRooms     = []byte("rooms")
	bucketFurniture = []byte("furniture")
	bucketFurniIdx  = []byte("furniture_by_room")
	bucketUsers     = []byte("users")
	bucketUsernames = []byte("usernames")
	bucketTokens    = []byte("tokens")
)

// Bolt is the bbolt-backed facade. One file, one writer at a time; every
// operation is its own transaction.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database file and ensures all buckets.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRooms, bucketFurniture, bucketFurniIdx, bucketUsers, bucketUsernames, bucketTokens} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func idxKey(roomID, instanceID string) []byte {
	return []byte(roomID + "/" + instanceID)
}

func (b *Bolt) LoadRoomLayout(roomID string) ([][]any, error) {
	var layout [][]any
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRooms).Get([]byte(roomID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &layout)
	})
	if err != nil {
		return nil, fmt.Errorf("store: load layout %s: %w", roomID, err)
	}
	return layout, nil
}

func (b *Bolt) SaveRoomLayout(roomID string, layout [][]any) error {
	raw, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("store: encode layout %s: %w", roomID, err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRooms).Put([]byte(roomID), raw)
	})
}

func (b *Bolt) LoadFurniture(roomID string) ([]FurnitureRow, error) {
	var rows []FurnitureRow
	err := b.db.View(func(tx *bolt.Tx) error {
		furni := tx.Bucket(bucketFurniture)
		c := tx.Bucket(bucketFurniIdx).Cursor()
		prefix := []byte(roomID + "/")
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			raw := furni.Get(v)
			if raw == nil {
				continue // dangling index entry, skip
			}
			var row FurnitureRow
			if err := json.Unmarshal(raw, &row); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: load furniture %s: %w", roomID, err)
	}
	return rows, nil
}

func (b *Bolt) InsertFurniture(row FurnitureRow) (string, error) {
	if row.InstanceID == "" {
		row.InstanceID = uuid.NewString()
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("store: encode furniture: %w", err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketFurniture).Put([]byte(row.InstanceID), raw); err != nil {
			return err
		}
		return tx.Bucket(bucketFurniIdx).Put(idxKey(row.RoomID, row.InstanceID), []byte(row.InstanceID))
	})
	if err != nil {
		return "", fmt.Errorf("store: insert furniture: %w", err)
	}
	return row.InstanceID, nil
}

func (b *Bolt) UpdateFurniture(instanceID string, patch FurniturePatch) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		furni := tx.Bucket(bucketFurniture)
		raw := furni.Get([]byte(instanceID))
		if raw == nil {
			return fmt.Errorf("store: furniture %s: %w", instanceID, ErrNotFound)
		}
		var row FurnitureRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		oldRoom := row.RoomID
		applyFurniturePatch(&row, patch)
		out, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := furni.Put([]byte(instanceID), out); err != nil {
			return err
		}
		if row.RoomID != oldRoom {
			idx := tx.Bucket(bucketFurniIdx)
			if err := idx.Delete(idxKey(oldRoom, instanceID)); err != nil {
				return err
			}
			return idx.Put(idxKey(row.RoomID, instanceID), []byte(instanceID))
		}
		return nil
	})
}

func (b *Bolt) DeleteFurniture(instanceID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		furni := tx.Bucket(bucketFurniture)
		raw := furni.Get([]byte(instanceID))
		if raw == nil {
			return fmt.Errorf("store: furniture %s: %w", instanceID, ErrNotFound)
		}
		var row FurnitureRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		if err := furni.Delete([]byte(instanceID)); err != nil {
			return err
		}
		return tx.Bucket(bucketFurniIdx).Delete(idxKey(row.RoomID, instanceID))
	})
}

func (b *Bolt) LoadUser(userID string) (*UserRow, error) {
	var row *UserRow
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketUsers).Get([]byte(userID))
		if raw == nil {
			return nil
		}
		row = &UserRow{}
		return json.Unmarshal(raw, row)
	})
	if err != nil {
		return nil, fmt.Errorf("store: load user %s: %w", userID, err)
	}
	return row, nil
}

func (b *Bolt) LoadUserByName(username string) (*UserRow, error) {
	var row *UserRow
	err := b.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketUsernames).Get([]byte(username))
		if id == nil {
			return nil
		}
		raw := tx.Bucket(bucketUsers).Get(id)
		if raw == nil {
			return nil
		}
		row = &UserRow{}
		return json.Unmarshal(raw, row)
	})
	if err != nil {
		return nil, fmt.Errorf("store: load user by name %s: %w", username, err)
	}
	return row, nil
}

func (b *Bolt) CreateUser(row UserRow) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("store: encode user: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(bucketUsernames)
		if names.Get([]byte(row.Username)) != nil {
			return fmt.Errorf("store: username %q already taken", row.Username)
		}
		if err := tx.Bucket(bucketUsers).Put([]byte(row.UserID), raw); err != nil {
			return err
		}
		return names.Put([]byte(row.Username), []byte(row.UserID))
	})
}

func (b *Bolt) UpdateUser(userID string, patch UserPatch) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		raw := users.Get([]byte(userID))
		if raw == nil {
			return fmt.Errorf("store: user %s: %w", userID, ErrNotFound)
		}
		var row UserRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		applyUserPatch(&row, patch)
		out, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return users.Put([]byte(userID), out)
	})
}

func (b *Bolt) InsertToken(token, userID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).Put([]byte(token), []byte(userID))
	})
}

func (b *Bolt) LookupToken(token string) (string, error) {
	var userID string
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketTokens).Get([]byte(token))
		if raw == nil {
			return ErrNotFound
		}
		userID = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
