/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package storagemodels

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ragamala/catalogstore/errors"
)

// CursorCodec converts a scan's last evaluated key to an opaque token and
// back. Tokens are HMAC-signed and bound to the partition they were issued
// for, so a caller cannot forge a cursor into a key outside the partition it
// was allowed to read.
type CursorCodec struct {
	secret []byte
}

// NewCursorCodec builds a codec with the given signing secret. An empty
// secret gets a random per-process one; such cursors do not survive restarts.
func NewCursorCodec(secret []byte) *CursorCodec {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic("cursor codec: cannot source randomness: " + err.Error())
		}
	}
	return &CursorCodec{secret: secret}
}

type cursorPayload struct {
	Keys      map[string]string `json:"k"`
	Partition string            `json:"p"`
}

// Encode serializes a last evaluated key into a signed token. All key
// attributes in the catalog table are strings.
func (c *CursorCodec) Encode(lastKey map[string]types.AttributeValue, partition string) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}
	payload := cursorPayload{Keys: make(map[string]string, len(lastKey)), Partition: partition}
	for name, av := range lastKey {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return "", errors.NewValidationError("cursor", "non-string key attribute "+name)
		}
		payload.Keys[name] = s.Value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(body) + "." + c.sign(body), nil
}

// Decode verifies a token and reconstructs the exclusive start key. The
// partition must match the one the token was issued for.
func (c *CursorCodec) Decode(token, partition string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	bodyPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return nil, errors.NewValidationError("nextToken", "malformed cursor")
	}
	body, err := base64.RawURLEncoding.DecodeString(bodyPart)
	if err != nil {
		return nil, errors.NewValidationError("nextToken", "malformed cursor")
	}
	if !hmac.Equal([]byte(c.sign(body)), []byte(sigPart)) {
		return nil, errors.NewValidationError("nextToken", "cursor signature mismatch")
	}
	var payload cursorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewValidationError("nextToken", "malformed cursor")
	}
	if payload.Partition != partition {
		return nil, errors.NewValidationError("nextToken", "cursor issued for a different partition")
	}
	startKey := make(map[string]types.AttributeValue, len(payload.Keys))
	for name, value := range payload.Keys {
		startKey[name] = &types.AttributeValueMemberS{Value: value}
	}
	return startKey, nil
}

func (c *CursorCodec) sign(body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
