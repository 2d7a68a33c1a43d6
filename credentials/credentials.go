// Package credentials resolves the username and password used to connect to a
// networked database, either from static configuration or from AWS Secrets
// Manager.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sirupsen/logrus"

	"minitwit/config"
)

// FriendlySecretName is looked up when no secret ARN is configured.
const FriendlySecretName = "mtdb-credentials"

// ErrNoCredentials is returned when no usable username could be resolved.
var ErrNoCredentials = errors.New("no database credentials configured")

// Credentials is a database username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Provider supplies database credentials.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Static returns a fixed pair.
type Static Credentials

func (s Static) Credentials(context.Context) (Credentials, error) {
	if s.Username == "" {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials(s), nil
}

// SecretGetter is the subset of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager reads a JSON secret holding the credentials. Any retrieval
// or decoding failure is logged and the static fallback is used instead.
type SecretsManager struct {
	SecretID    string
	UsernameKey string
	PasswordKey string
	Fallback    Static
	Log         logrus.FieldLogger

	// NewClient builds the Secrets Manager client. Defaults to the AWS SDK
	// default chain with the region taken from EC2 instance metadata when
	// the environment does not set one.
	NewClient func(ctx context.Context) (SecretGetter, error)
}

// FromConfig picks the provider matching cfg.CredentialSource.
func FromConfig(cfg *config.Config, log logrus.FieldLogger) Provider {
	static := Static{Username: cfg.DBUser, Password: cfg.DBPassword}
	if cfg.CredentialSource != config.CredentialSourceSecretsManager {
		return static
	}

	secretID := cfg.SecretARN
	if secretID == "" {
		secretID = FriendlySecretName
	}
	return &SecretsManager{
		SecretID:    secretID,
		UsernameKey: cfg.SecretKeyUsername,
		PasswordKey: cfg.SecretKeyPassword,
		Fallback:    static,
		Log:         log,
	}
}

func (s *SecretsManager) Credentials(ctx context.Context) (Credentials, error) {
	s.Log.WithField("secret_id", s.SecretID).Info("Retrieving database credentials from secrets manager")

	creds, err := s.fetch(ctx)
	if err != nil {
		s.Log.WithError(err).Warn("Unable to get credentials from secrets manager. Using stored credentials")
		return s.Fallback.Credentials(ctx)
	}
	return creds, nil
}

func (s *SecretsManager) fetch(ctx context.Context) (Credentials, error) {
	newClient := s.NewClient
	if newClient == nil {
		newClient = defaultClient
	}
	client, err := newClient(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("creating secrets manager client: %w", err)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.SecretID),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("getting secret %q: %w", s.SecretID, err)
	}
	if out.SecretString == nil {
		return Credentials{}, fmt.Errorf("secret %q has no string value", s.SecretID)
	}

	var values map[string]interface{}
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return Credentials{}, fmt.Errorf("decoding secret %q: %w", s.SecretID, err)
	}

	username, err := stringField(values, s.UsernameKey)
	if err != nil {
		return Credentials{}, err
	}
	password, err := stringField(values, s.PasswordKey)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: username, Password: password}, nil
}

func stringField(values map[string]interface{}, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("secret has no %q key", key)
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secret key %q is not a string", key)
	}
	return str, nil
}

func defaultClient(ctx context.Context) (SecretGetter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		out, err := imds.NewFromConfig(cfg).GetRegion(ctx, &imds.GetRegionInput{})
		if err != nil {
			return nil, fmt.Errorf("looking up region from instance metadata: %w", err)
		}
		cfg.Region = out.Region
	}
	return secretsmanager.NewFromConfig(cfg), nil
}
