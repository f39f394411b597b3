package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type aesEncryptor struct {
	aead cipher.AEAD
}

// pbkdf2 parameters; changing them invalidates existing stores.
const (
	kdfSalt = "voxvault/chunk-store"
	kdfIter = 10000
)

// NewAESEncryptor derives an AES-256-GCM key from the passphrase.
func NewAESEncryptor(passphrase string) (Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfIter, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aesEncryptor{aead: aead}, nil
}

func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	buf := make([]byte, 1+len(nonce), 1+len(nonce)+len(plaintext)+e.aead.Overhead())
	buf[0] = byte(len(nonce))
	copy(buf[1:], nonce)
	return e.aead.Seal(buf, nonce, plaintext, nil), nil
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 1 {
		return nil, errors.New("misformed ciphertext: empty")
	}
	nonceLen := int(ciphertext[0])
	if 1+nonceLen >= len(ciphertext) {
		return nil, errors.Errorf("misformed ciphertext: %d", nonceLen)
	}
	nonce := ciphertext[1 : 1+nonceLen]
	return e.aead.Open(nil, nonce, ciphertext[1+nonceLen:], nil)
}

type encrypted struct {
	ChunkStore
	enc Encryptor
}

// NewEncrypted returns a chunk store that encrypts records at rest.
func NewEncrypted(s ChunkStore, enc Encryptor) ChunkStore {
	return &encrypted{s, enc}
}

func (e *encrypted) String() string {
	return fmt.Sprintf("%s(encrypted)", e.ChunkStore)
}

func (e *encrypted) Get(key string) ([]byte, error) {
	ciphertext, err := e.ChunkStore.Get(key)
	if err != nil {
		return nil, err
	}
	plain, err := e.enc.Decrypt(ciphertext)
	if err != nil {
		return nil, errors.Wrapf(err, "decrypt %s", key)
	}
	return plain, nil
}

func (e *encrypted) Put(key string, data []byte) error {
	ciphertext, err := e.enc.Encrypt(data)
	if err != nil {
		return err
	}
	return e.ChunkStore.Put(key, ciphertext)
}

var _ ChunkStore = &encrypted{}
