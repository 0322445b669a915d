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

// Playoutctl runs an optional admin server that recompiles plan files
// on a schedule and exposes the result of the last compile over HTTP.
// It never drives the player itself; that remains cmd/playoutdrv's job.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/avplayout/playout/compiler"
	"github.com/avplayout/playout/config"
)

const (
	operatorTokenTTL = 12 * time.Hour
	sessionCookie    = "playoutctl_session"
)

// cookieCodec derives a secure-cookie key from the same secret that
// signs bearer tokens, so operators can authenticate with either a
// browser session cookie or a bearer token without configuring two
// secrets.
func cookieCodec(cfg *config.Config) *securecookie.SecureCookie {
	hashKey := sha256.Sum256([]byte(cfg.Admin.JWTSecret))
	return securecookie.New(hashKey[:], nil)
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", config.PathFromEnv(), "Path to the process configuration file.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("playoutctl: %v", err)
	}
	if err := cfg.ResolveSecrets(context.Background()); err != nil {
		log.Fatalf("playoutctl: %v", err)
	}

	var sched *rebuildScheduler
	if cfg.RebuildSpec != "" {
		sched, err = newRebuildScheduler(cfg, cfg.RebuildSpec)
		if err != nil {
			log.Fatalf("playoutctl: rebuild scheduler: %v", err)
		}
		defer sched.stop()
		log.Printf("playoutctl: rebuilding on schedule %q", cfg.RebuildSpec)
	}

	if cfg.Admin.Addr == "" {
		log.Printf("playoutctl: no admin.addr configured, running scheduler only")
		select {} // Block forever; the scheduler runs in the background.
	}

	if cfg.Admin.JWTSecret == "" {
		log.Fatalf("playoutctl: admin.jwt_secret is required to run the admin server")
	}
	app := newApp(cfg, sched)
	log.Printf("playoutctl: admin server listening on %s", cfg.Admin.Addr)
	log.Fatal(app.Listen(cfg.Admin.Addr))
}

// newApp builds the fiber application exposing the admin API. sched may
// be nil when no rebuild_spec is configured; /api/status then reports that
// no schedule is active, while /api/rebuild still compiles on demand.
func newApp(cfg *config.Config, sched *rebuildScheduler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	app.Post("/login", loginHandler(cfg))

	api := app.Group("/api", requireBearer(cfg))
	api.Get("/status", statusHandler(sched))
	api.Post("/rebuild", rebuildHandler(cfg))

	return app
}

// loginHandler issues a bearer token and a session cookie for any
// non-empty operator name. This is
// intentionally minimal: authorization here stands in for whatever
// identity provider a production deployment would front it with.
func loginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Operator string `json:"operator"`
		}
		if err := c.BodyParser(&body); err != nil || body.Operator == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing operator")
		}
		tok, err := newOperatorToken(body.Operator, []byte(cfg.Admin.JWTSecret), operatorTokenTTL)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		encoded, err := cookieCodec(cfg).Encode(sessionCookie, body.Operator)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    encoded,
			MaxAge:   int(operatorTokenTTL.Seconds()),
			HTTPOnly: true,
		})

		return c.JSON(fiber.Map{"token": tok})
	}
}

// requireBearer accepts either the Authorization bearer token or the
// signed session cookie set at login; browser-based admin UIs use the
// cookie, scripted callers use the bearer token.
func requireBearer(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := getClaims(c.Get("Authorization"), []byte(cfg.Admin.JWTSecret)); err == nil {
			return c.Next()
		}
		var operator string
		if err := cookieCodec(cfg).Decode(sessionCookie, c.Cookies(sessionCookie), &operator); err != nil || operator == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid credentials")
		}
		return c.Next()
	}
}

func statusHandler(sched *rebuildScheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sched == nil {
			return c.JSON(fiber.Map{"scheduled": false})
		}
		lastRun, lastErr := sched.status()
		resp := fiber.Map{"scheduled": true, "last_run": lastRun}
		if lastErr != nil {
			resp["last_error"] = lastErr.Error()
		}
		return c.JSON(resp)
	}
}

// rebuildHandler triggers an immediate, synchronous recompile outside
// the normal schedule.
func rebuildHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := uuid.NewString()
		log.Printf("playoutctl: rebuild %s requested", reqID)

		result, err := compiler.Build(cfg, false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"request_id":   reqID,
			"plans_loaded": result.PlansLoaded,
			"instances":    result.Instances,
		})
	}
}
