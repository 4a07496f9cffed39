package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	Auth struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
	} `json:"auth,omitempty"`

	Quota struct {
		MaxNoteBytes      int64 `json:"max_note_bytes"`
		MaxUserBytes      int64 `json:"max_user_bytes"`
		PremiumMultiplier int64 `json:"premium_multiplier"`
	} `json:"quota,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Locks struct {
		RetryDelay Duration `json:"retry_delay"`
		Timeout    Duration `json:"timeout"`
	} `json:"locks,omitempty"`

	Notify struct {
		SigningKey  string   `json:"signing_key"`
		PublicKey   string   `json:"public_key"`
		WebhookURLs []string `json:"webhook_urls"`
	} `json:"notify,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Auth: Auth{
			TokenSignKey:  jsonCfg.Auth.TokenSignKey,
			TokenIssuer:   jsonCfg.Auth.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.Auth.TokenDuration),
		},
		Quota: Quota{
			MaxNoteBytes:      jsonCfg.Quota.MaxNoteBytes,
			MaxUserBytes:      jsonCfg.Quota.MaxUserBytes,
			PremiumMultiplier: jsonCfg.Quota.PremiumMultiplier,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Locks: Locks{
			RetryDelay: time.Duration(jsonCfg.Locks.RetryDelay),
			Timeout:    time.Duration(jsonCfg.Locks.Timeout),
		},
		Notify: Notify{
			SigningKey:  jsonCfg.Notify.SigningKey,
			PublicKey:   jsonCfg.Notify.PublicKey,
			WebhookURLs: jsonCfg.Notify.WebhookURLs,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
