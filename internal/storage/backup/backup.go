// Package backup exports and imports the keyslot image as an encrypted file.
package backup

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/pkg/crypto/adaptive"
)

// Magic bytes identify backup files.
var magicBytes = []byte("OTPB")

const (
	formatVersion = 1
	headerLength  = 4 + 1 + 1 + 1 + SaltLength
)

// Image is the content of a backup.
type Image struct {
	CreatedAt int64            // Unix milliseconds
	Capacity  int              // Capacity of the exported store
	Slots     []domain.KeySlot // Enabled prefix in order
}

// Info describes a backup file.
type Info struct {
	Path      string              `json:"path"`
	Size      int64               `json:"size"`
	Cipher    adaptive.CipherType `json:"cipher"`
	KDF       string              `json:"kdf"`
	SlotCount int                 `json:"slot_count"`
	CreatedAt int64               `json:"created_at"`
	Checksum  string              `json:"checksum"`
}

type imageJSON struct {
	CreatedAt int64      `json:"created_at"`
	Capacity  int        `json:"capacity"`
	Slots     []slotJSON `json:"slots"`
}

type slotJSON struct {
	PublicID  string `json:"public_id"`
	BootCount uint16 `json:"boot_count"`
}

// Encode seals img into a backup blob.
func Encode(img *Image, src KeySource, cipherType adaptive.CipherType) ([]byte, error) {
	kdf, err := src.kdf()
	if err != nil {
		return nil, err
	}
	if cipherType == "" {
		cipherType = adaptive.Preferred()
	}
	cipherID := cipherType.ID()
	if cipherID == 0 {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unsupported cipher %q", cipherType))
	}

	header := make([]byte, headerLength)
	copy(header, magicBytes)
	header[4] = formatVersion
	header[5] = cipherID
	header[6] = byte(kdf)
	salt := header[7:]
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("backup: generate salt: %w", err)
	}

	key, err := deriveKey(src, kdf, salt)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	c, err := adaptive.NewWithType(key, cipherType)
	if err != nil {
		return nil, fmt.Errorf("backup: create cipher: %w", err)
	}

	doc := imageJSON{
		CreatedAt: img.CreatedAt,
		Capacity:  img.Capacity,
		Slots:     make([]slotJSON, 0, len(img.Slots)),
	}
	for _, s := range img.Slots {
		doc.Slots = append(doc.Slots, slotJSON{
			PublicID:  hex.EncodeToString(s.PublicID[:]),
			BootCount: s.BootCount,
		})
	}
	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("backup: marshal image: %w", err)
	}

	sealed, err := c.Encrypt(plain, header)
	if err != nil {
		return nil, fmt.Errorf("backup: encrypt: %w", err)
	}

	return append(header, sealed...), nil
}

// Decode opens a backup blob.
func Decode(data []byte, src KeySource) (*Image, adaptive.CipherType, KDF, error) {
	if len(data) < headerLength || !bytes.Equal(data[:4], magicBytes) {
		return nil, "", 0, domain.ErrBackupCorrupted.WithDetails("not a backup file")
	}
	if data[4] != formatVersion {
		return nil, "", 0, domain.ErrBackupCorrupted.WithDetails(fmt.Sprintf("unsupported version %d", data[4]))
	}

	header := data[:headerLength]
	kdf := KDF(header[6])
	key, err := deriveKey(src, kdf, header[7:])
	if err != nil {
		return nil, "", 0, err
	}
	defer zeroKey(key)

	c, err := adaptive.NewWithID(key, header[5])
	if err != nil {
		return nil, "", 0, domain.ErrBackupCorrupted.WithCause(err)
	}

	plain, err := c.Decrypt(data[headerLength:], header)
	if err != nil {
		return nil, "", 0, domain.ErrBackupCorrupted.WithCause(err)
	}

	var doc imageJSON
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, "", 0, domain.ErrBackupCorrupted.WithCause(fmt.Errorf("unmarshal image: %w", err))
	}

	img := &Image{
		CreatedAt: doc.CreatedAt,
		Capacity:  doc.Capacity,
		Slots:     make([]domain.KeySlot, 0, len(doc.Slots)),
	}
	for i, s := range doc.Slots {
		raw, err := hex.DecodeString(s.PublicID)
		if err != nil || len(raw) != domain.PublicIDLength {
			return nil, "", 0, domain.ErrBackupCorrupted.WithDetails(fmt.Sprintf("slot %d: bad public id", i))
		}
		slot := domain.KeySlot{Enabled: true, BootCount: s.BootCount}
		copy(slot.PublicID[:], raw)
		img.Slots = append(img.Slots, slot)
	}

	return img, c.Type(), kdf, nil
}

// Write seals img into a file at path, replacing it atomically.
func Write(path string, img *Image, src KeySource, cipherType adaptive.CipherType) (*Info, error) {
	if img.CreatedAt == 0 {
		img.CreatedAt = time.Now().UnixMilli()
	}

	data, err := Encode(img, src, cipherType)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	file, err := os.CreateTemp(dir, ".otpb-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("backup: create temp file: %w", err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return nil, fmt.Errorf("backup: write: %w", err)
	}
	if err := file.Chmod(0600); err != nil {
		file.Close()
		return nil, fmt.Errorf("backup: chmod: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("backup: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("backup: close: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return nil, fmt.Errorf("backup: rename: %w", err)
	}

	kdf, _ := src.kdf()
	sum := sha256.Sum256(data)
	return &Info{
		Path:      path,
		Size:      int64(len(data)),
		Cipher:    cipherTypeOf(data),
		KDF:       kdf.String(),
		SlotCount: len(img.Slots),
		CreatedAt: img.CreatedAt,
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}

// Read opens the backup file at path.
func Read(path string, src KeySource) (*Image, *Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("backup: read: %w", err)
	}

	img, cipherType, kdf, err := Decode(data, src)
	if err != nil {
		return nil, nil, err
	}

	sum := sha256.Sum256(data)
	return img, &Info{
		Path:      path,
		Size:      int64(len(data)),
		Cipher:    cipherType,
		KDF:       kdf.String(),
		SlotCount: len(img.Slots),
		CreatedAt: img.CreatedAt,
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}

func cipherTypeOf(data []byte) adaptive.CipherType {
	t, _ := adaptive.TypeFromID(data[5])
	return t
}
