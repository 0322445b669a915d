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

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// putClaims digitally signs JWT claims using secret via HMAC-SHA-256.
func putClaims(claims jwt.MapClaims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("missing secret")
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokString, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokString, nil
}

// getClaims retrieves JWT claims from a token string using secret. Any
// "Bearer " prefix is ignored.
func getClaims(tokString string, secret []byte) (jwt.MapClaims, error) {
	tokString = strings.TrimPrefix(tokString, "Bearer ")
	if tokString == "" {
		return nil, errors.New("missing token")
	}
	if len(secret) == 0 {
		return nil, errors.New("missing secret")
	}
	tok, err := jwt.Parse(tokString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not parse token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !tok.Valid || !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// newOperatorToken issues a short-lived bearer token identifying an
// operator, for use by the playoutctl CLI and any admin UI.
func newOperatorToken(operator string, secret []byte, ttl time.Duration) (string, error) {
	return putClaims(jwt.MapClaims{
		"sub": operator,
		"exp": time.Now().Add(ttl).Unix(),
	}, secret)
}
