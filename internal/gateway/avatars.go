package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// maxAvatarBytes bounds how much image data a single line may carry.
const maxAvatarBytes = 1 << 20

// AvatarResolver loads avatar bitmaps from files below a fixed root. URIs use
// the avatar:// scheme followed by a path relative to the root; anything else
// is rejected.
type AvatarResolver struct {
	root string
}

var _ notify.AvatarResolver = (*AvatarResolver)(nil)

// NewAvatarResolver creates a resolver rooted at dir.
func NewAvatarResolver(dir string) *AvatarResolver {
	return &AvatarResolver{root: dir}
}

// RequestBitmap implements notify.AvatarResolver.
func (r *AvatarResolver) RequestBitmap(_ context.Context, uri string) ([]byte, error) {
	rel, ok := strings.CutPrefix(uri, "avatar://")
	if !ok {
		return nil, fmt.Errorf("gateway: unsupported avatar uri %q", uri)
	}

	path := filepath.Join(r.root, filepath.Clean("/"+rel))
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("gateway: avatar %q: %w", uri, err)
	}
	if info.Size() > maxAvatarBytes {
		return nil, fmt.Errorf("gateway: avatar %q exceeds %d bytes", uri, maxAvatarBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway: avatar %q: %w", uri, err)
	}
	return data, nil
}
