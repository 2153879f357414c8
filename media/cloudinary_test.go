package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCloudinaryUploaderRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryUploader(CloudinaryConfig{CloudName: "demo"})
	assert.Error(t, err)

	u, err := NewCloudinaryUploader(CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	assert.NoError(t, err)
	assert.NotNil(t, u)
}

func TestDisabledUploader(t *testing.T) {
	_, err := DisabledUploader{}.Upload(context.Background(), strings.NewReader("x"), "f", KindImage)
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
