package token

import "github.com/google/uuid"

// NewDownloadToken returns a random token that authorizes anonymous reads of
// one stored blob. It is embedded in the blob's metadata and in its public URL.
func NewDownloadToken() string {
	return uuid.NewString()
}
