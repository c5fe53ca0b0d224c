package secrets

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"cloud.google.com/go/storage"
)

const (
	gcsScheme           = "gs://"
	secretManagerScheme = "sm://"
)

// Load reads and parses client secrets from location, which is one of
//
//	gs://<bucket>/<object>
//	sm://projects/<project>/secrets/<name>[/versions/<version>]
//	sm://<name>   (resolved against project, latest version)
//	<local file path>
func Load(ctx context.Context, location, project string) (*ClientConfig, error) {
	data, err := Read(ctx, location, project)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Read(ctx context.Context, location, project string) ([]byte, error) {
	switch {
	case strings.HasPrefix(location, gcsScheme):
		return readStorageObject(ctx, location)
	case strings.HasPrefix(location, secretManagerScheme):
		name, err := secretVersionName(location, project)
		if err != nil {
			return nil, err
		}
		return readSecretVersion(ctx, name)
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read client secrets: %w", err)
		}
		return data, nil
	}
}

func splitStorageURL(location string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(location, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid storage URL %s", location)
	}
	return bucket, object, nil
}

func readStorageObject(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := splitStorageURL(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	defer func() { _ = client.Close() }()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// secretVersionName expands an sm:// location into a full secret version
// resource name.
func secretVersionName(location, project string) (string, error) {
	name := strings.TrimPrefix(location, secretManagerScheme)
	if name == "" {
		return "", fmt.Errorf("invalid secret URL %s", location)
	}

	if !strings.HasPrefix(name, "projects/") {
		if project == "" {
			return "", fmt.Errorf("secret %s needs GOOGLE_CLOUD_PROJECT", name)
		}
		name = fmt.Sprintf("projects/%s/secrets/%s", project, name)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name, nil
}

func readSecretVersion(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return resp.GetPayload().GetData(), nil
}
