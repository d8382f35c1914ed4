package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/config"
    "github.com/iliyamo/table-reservation/internal/middleware"
    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/notify"
    "github.com/iliyamo/table-reservation/internal/repository"
    "github.com/iliyamo/table-reservation/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and profile
// endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Users    repository.UserStore
    Notifier notify.Notifier
    Log      *zerolog.Logger
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, n notify.Notifier, log *zerolog.Logger) *AuthHandler {
    if n == nil {
        n = notify.Nop{}
    }
    return &AuthHandler{Cfg: cfg, Users: users, Notifier: n, Log: log}
}

// ----- DTOs -----

type registerReq struct {
    Username        string `json:"username" form:"username" validate:"required,min=3,max=20,username"`
    Email           string `json:"email" form:"email" validate:"omitempty,email,max=255"`
    Password        string `json:"password" form:"password" validate:"required,min=5"`
    ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

type loginReq struct {
    Username string `json:"username" form:"username" validate:"required"`
    Password string `json:"password" form:"password" validate:"required"`
}

type userPart struct {
    Username  string    `json:"username"`
    Email     string    `json:"email,omitempty"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"created_at"`
}

type sessionResp struct {
    User    userPart  `json:"user"`
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

func (h *AuthHandler) roleOf(username string) string {
    if username == h.Cfg.AdminUsername {
        return model.RoleAdmin
    }
    return model.RoleCustomer
}

func (h *AuthHandler) userPart(u model.User) userPart {
    return userPart{Username: u.Username, Email: u.Email, Role: h.roleOf(u.Username), CreatedAt: u.CreatedAt}
}

// Register creates a customer account.  The admin username is reserved for
// the account seeded by EnsureAdmin.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindAndValidate(c, &req); err != nil {
        return writeError(c, h.Log, err)
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if strings.EqualFold(req.Username, h.Cfg.AdminUsername) {
        return writeError(c, h.Log, repository.ErrUsernameTaken)
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return writeError(c, h.Log, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u := &model.User{Username: req.Username, PasswordHash: hash, Email: req.Email, CreatedAt: time.Now().UTC()}
    if err := h.Users.Create(ctx, u); err != nil {
        return writeError(c, h.Log, err)
    }
    h.Log.Info().Str("username", u.Username).Msg("user registered")

    if u.Email != "" {
        h.Notifier.Send(ctx, u.Email, notify.KindRegister, map[string]string{"username": u.Username})
    }
    return c.JSON(http.StatusCreated, echo.Map{"user": h.userPart(*u)})
}

// Login verifies credentials and starts a session: the token is set as an
// HttpOnly cookie and also returned in the body for API clients.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindAndValidate(c, &req); err != nil {
        return writeError(c, h.Log, err)
    }
    req.Username = strings.TrimSpace(req.Username)

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, req.Username)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.Username, h.roleOf(u.Username), h.Cfg.AccessTTLMin)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    tok.Token,
        Path:     "/",
        Expires:  tok.Exp,
        HttpOnly: true,
        Secure:   h.Cfg.Env != "dev",
        SameSite: http.SameSiteLaxMode,
    })
    return c.JSON(http.StatusOK, sessionResp{User: h.userPart(u), Token: tok.Token, Expires: tok.Exp})
}

// Logout clears the session cookie.  Tokens are stateless, so a copied
// Bearer token stays valid until it expires.
func (h *AuthHandler) Logout(c echo.Context) error {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        Expires:  time.Unix(0, 0),
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, middleware.Username(c))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user": h.userPart(u)})
}

// EnsureAdmin creates the admin account with password when it does not
// exist yet.  It does nothing for an empty password.
func (h *AuthHandler) EnsureAdmin(ctx context.Context, password string) error {
    if password == "" {
        return nil
    }
    if _, err := h.Users.GetByUsername(ctx, h.Cfg.AdminUsername); err == nil {
        return nil
    } else if !errors.Is(err, repository.ErrNotFound) {
        return err
    }
    hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
    if err != nil {
        return err
    }
    err = h.Users.Create(ctx, &model.User{Username: h.Cfg.AdminUsername, PasswordHash: hash, CreatedAt: time.Now().UTC()})
    if err != nil && !errors.Is(err, repository.ErrUsernameTaken) {
        return err
    }
    h.Log.Info().Str("username", h.Cfg.AdminUsername).Msg("admin account seeded")
    return nil
}
