// Package token derives the short visit code handed to a visitor's device.
//
// The code is the first Length hex characters of the AES-256-CBC encryption
// of the visit request id, with key and IV derived from the shared secret
// the way OpenSSL's EVP_BytesToKey does (MD5, one round, no salt). There is
// no random component, so the same secret and id always give the same code.
// Two ids can collide after truncation; the code is an obfuscated pass for
// a single visit, not a commitment.
package token

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"errors"
)

const Length = 20

var ErrEmptySecret = errors.New("token: secret key is empty")

type Codec struct {
	block cipher.Block
	iv    []byte
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key, iv := bytesToKey([]byte(secret), 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Codec{block: block, iv: iv}, nil
}

func (c *Codec) Derive(visitRequestID string) string {
	plain := pkcs7Pad([]byte(visitRequestID), aes.BlockSize)
	out := make([]byte, len(plain))
	iv := make([]byte, len(c.iv))
	copy(iv, c.iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, plain)
	return hex.EncodeToString(out)[:Length]
}

func bytesToKey(password []byte, keyLen, ivLen int) ([]byte, []byte) {
	var derived, prev []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(password)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}
