// Package admin is the read-mostly query surface over the ledger. Every
// /api route requires the shared admin secret in the X-Admin-Password
// header.
package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"referral-bot/internal/store"
)

const activeWindowDays = 7

type Server struct {
	App      *fiber.App
	store    *store.Store
	password string
	botName  string
}

func NewServer(st *store.Store, password, botName string) *Server {
	s := &Server{
		App:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		store:    st,
		password: password,
		botName:  botName,
	}

	s.App.Get("/health", s.health)

	api := s.App.Group("/api", s.requireAuth)
	api.Get("/stats", s.stats)
	api.Get("/users", s.listUsers)
	api.Get("/top", s.topAccounts)
	api.Get("/user/:id", s.userDetail)
	api.Post("/broadcast", s.createBroadcast)

	return s
}

func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if c.Get("X-Admin-Password") != s.password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid password",
		})
	}
	return c.Next()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "bot": s.botName})
}

func (s *Server) stats(c *fiber.Ctx) error {
	totalUsers, totalReferrals, err := s.store.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	activeUsers, err := s.store.ActiveAccountCount(activeWindowDays)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"total_users":     totalUsers,
		"total_referrals": totalReferrals,
		"active_users":    activeUsers,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	users, err := s.store.ListAccounts(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		out = append(out, fiber.Map{
			"user_id":   user.ExternalID,
			"username":  user.Username,
			"points":    user.Points,
			"is_active": user.IsActive,
			"joined_at": user.JoinedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"users": out})
}

func (s *Server) topAccounts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	users, err := s.store.TopAccountsByPoints(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		out = append(out, fiber.Map{
			"user_id":  user.ExternalID,
			"username": user.Username,
			"points":   user.Points,
		})
	}
	return c.JSON(fiber.Map{"top": out})
}

func (s *Server) userDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	user, err := s.store.GetAccount(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	referrals, err := s.store.CountReferrals(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"user_id":        user.ExternalID,
		"username":       user.Username,
		"points":         user.Points,
		"referral_count": referrals,
		"is_active":      user.IsActive,
		"joined_at":      user.JoinedAt.Format(time.RFC3339),
		"last_activity":  user.LastActivity.Format(time.RFC3339),
	})
}

func (s *Server) createBroadcast(c *fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	broadcast, err := s.store.CreateBroadcast(body.Text)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "broadcast created", "id": broadcast.ID})
}
