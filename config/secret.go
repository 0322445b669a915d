/*
LICENSE
  Copyright (C) 2026 the Playout project.

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// gsbScheme marks a config value that names a Google Cloud Storage
// object rather than a literal secret, e.g. "gs://bucket/jwt_secret".
const gsbScheme = "gs://"

// ResolveSecret returns v unchanged unless it names a gs:// object, in
// which case it fetches and returns the object's contents. This lets
// operators keep admin.jwt_secret and player.password out of the
// checked-in config file in favour of a small bucket object.
func ResolveSecret(ctx context.Context, v string) (string, error) {
	if !strings.HasPrefix(v, gsbScheme) {
		return v, nil
	}
	path := v[len(gsbScheme):]
	sep := strings.IndexByte(path, '/')
	if sep == -1 {
		return "", fmt.Errorf("config: invalid secret URL %q", v)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("config: secret client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(path[:sep]).Object(path[sep+1:]).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("config: read secret: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("config: read secret: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ResolveSecrets replaces cfg.Admin.JWTSecret and cfg.Player.Password
// with their resolved values in place, following ResolveSecret.
func (cfg *Config) ResolveSecrets(ctx context.Context) error {
	secret, err := ResolveSecret(ctx, cfg.Admin.JWTSecret)
	if err != nil {
		return err
	}
	cfg.Admin.JWTSecret = secret

	password, err := ResolveSecret(ctx, cfg.Player.Password)
	if err != nil {
		return err
	}
	cfg.Player.Password = password
	return nil
}
