package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/logger"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
)

type amountJSON struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

func toAmount(a rewards.Amount) amountJSON {
	return amountJSON{XP: a.XP, Coins: a.Coins}
}

type totalsJSON struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
	Level int `json:"level"`
}

func toTotals(t rewards.Totals) totalsJSON {
	return totalsJSON{XP: t.XP, Coins: t.Coins, Level: t.Level}
}

type phaseJSON struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"order_index"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	XP         int    `json:"xp"`
	Coins      int    `json:"coins"`
}

type moduleJSON struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Version         string      `json:"version"`
	CompletionBonus amountJSON  `json:"completion_bonus"`
	Phases          []phaseJSON `json:"phases"`
}

func toModule(m *store.Module) moduleJSON {
	out := moduleJSON{
		ID:              m.ID,
		Title:           m.Title,
		Version:         m.Version,
		CompletionBonus: toAmount(m.Bonus),
		Phases:          make([]phaseJSON, 0, len(m.Phases)),
	}
	for _, p := range m.Phases {
		out.Phases = append(out.Phases, phaseJSON{
			ID: p.ID, OrderIndex: p.OrderIndex, Kind: string(p.Kind), Title: p.Title, XP: p.XP, Coins: p.Coins,
		})
	}
	return out
}

type trailPhaseJSON struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
	Status     string `json:"status"`
	IsLocked   bool   `json:"is_locked"`
}

type trailJSON struct {
	ModuleID       string           `json:"module_id"`
	Title          string           `json:"title"`
	Progress       float64          `json:"progress"`
	ModuleComplete bool             `json:"module_complete"`
	Phases         []trailPhaseJSON `json:"phases"`
}

func toTrail(v *engine.TrailView) trailJSON {
	titles := make(map[string]string, len(v.Module.Phases))
	for _, p := range v.Module.Phases {
		titles[p.ID] = p.Title
	}
	out := trailJSON{
		ModuleID:       v.Trail.ModuleID,
		Title:          v.Module.Title,
		Progress:       v.Progress,
		ModuleComplete: v.Trail.ModuleComplete,
		Phases:         make([]trailPhaseJSON, 0, len(v.Trail.Phases)),
	}
	for _, tp := range v.Trail.Phases {
		out.Phases = append(out.Phases, trailPhaseJSON{
			ID: tp.PhaseID, Title: titles[tp.PhaseID], OrderIndex: tp.OrderIndex, Status: string(tp.Status), IsLocked: tp.IsLocked,
		})
	}
	return out
}

type claimJSON struct {
	Status      string      `json:"status"`
	Key         string      `json:"key"`
	GrantID     string      `json:"grant_id,omitempty"`
	Reward      *amountJSON `json:"reward,omitempty"`
	BadgeID     string      `json:"badge_id,omitempty"`
	Totals      *totalsJSON `json:"totals,omitempty"`
	TotalsStale bool        `json:"totals_stale,omitempty"`
	TicketID    string      `json:"ticket_id,omitempty"`
}

func toClaim(c *engine.Claim) claimJSON {
	out := claimJSON{Status: c.Outcome.String(), Key: c.Key.String()}
	if !c.Granted() {
		return out
	}
	reward := toAmount(c.Grant.Amount)
	out.GrantID = c.Grant.ID
	out.Reward = &reward
	out.BadgeID = c.Grant.BadgeID
	out.TotalsStale = c.TotalsStale
	if !c.TotalsStale {
		totals := toTotals(c.Totals)
		out.Totals = &totals
	}
	if c.Ticket != nil {
		out.TicketID = c.Ticket.ID
	}
	return out
}

type phaseResultJSON struct {
	PhaseID        string      `json:"phase_id"`
	ModuleID       string      `json:"module_id"`
	Status         string      `json:"status"`
	Replay         bool        `json:"replay"`
	ModuleComplete bool        `json:"module_complete"`
	Progress       float64     `json:"progress"`
	RewardPreview  *amountJSON `json:"reward_preview,omitempty"`
}

func toPhaseResult(r *engine.PhaseResult) phaseResultJSON {
	out := phaseResultJSON{
		PhaseID:        r.PhaseID,
		ModuleID:       r.ModuleID,
		Status:         string(r.Status),
		Replay:         r.Replay,
		ModuleComplete: r.ModuleComplete,
		Progress:       r.Progress,
	}
	if r.ModuleComplete {
		preview := toAmount(r.RewardPreview)
		out.RewardPreview = &preview
	}
	return out
}

type profileJSON struct {
	UserID        string     `json:"user_id"`
	Totals        totalsJSON `json:"totals"`
	StreakDays    int        `json:"streak_days"`
	LastLogin     string     `json:"last_login,omitempty"`
	NextMilestone int        `json:"next_milestone"`
	Badges        []string   `json:"badges"`
	CreatedAt     time.Time  `json:"created_at"`
}

type completeRequest struct {
	Rating *int `json:"rating"`
}

// Handler serves the progression and rewards endpoints.
type Handler struct {
	log *logger.Logger
	eng *engine.Engine
}

func NewHandler(log *logger.Logger, eng *engine.Engine) *Handler {
	return &Handler{
		log: logger.OrNop(log).With("handler", "Handler"),
		eng: eng,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	RespondError(c, status, code, err)
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/modules
func (h *Handler) ListModules(c *gin.Context) {
	modules, err := h.eng.Modules(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]moduleJSON, 0, len(modules))
	for i := range modules {
		out = append(out, toModule(&modules[i]))
	}
	RespondOK(c, gin.H{"modules": out})
}

// GET /api/modules/:id/trail
func (h *Handler) GetTrail(c *gin.Context) {
	view, err := h.eng.ComputeTrail(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, toTrail(view))
}

// GET /api/modules/:id/reward
func (h *Handler) GetModuleReward(c *gin.Context) {
	amount, err := h.eng.ModuleRewardPreview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"module_id": c.Param("id"), "reward": toAmount(amount)})
}

// POST /api/modules/:id/claim
func (h *Handler) ClaimModule(c *gin.Context) {
	claim, err := h.eng.ClaimModuleReward(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, toClaim(claim))
}

// POST /api/phases/:id/start
func (h *Handler) StartPhase(c *gin.Context) {
	res, err := h.eng.StartPhase(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, toPhaseResult(res))
}

// POST /api/phases/:id/complete
// Optional body: {"rating": 1..5}
func (h *Handler) CompletePhase(c *gin.Context) {
	var req completeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	res, err := h.eng.CompletePhase(c.Request.Context(), userID(c), c.Param("id"), req.Rating)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, toPhaseResult(res))
}

// POST /api/daily-bonus/claim
func (h *Handler) ClaimDailyBonus(c *gin.Context) {
	claim, err := h.eng.ClaimDailyBonus(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, toClaim(claim))
}

// POST /api/login-tick
func (h *Handler) LoginTick(c *gin.Context) {
	res, err := h.eng.Login(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := gin.H{
		"streak":     res.Streak,
		"last_login": res.LastLogin.String(),
		"changed":    res.Changed,
	}
	if res.Milestone != nil {
		out["milestone"] = toClaim(res.Milestone)
	}
	RespondOK(c, out)
}

// GET /api/profile
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.eng.Profile(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := profileJSON{
		UserID:        p.UserID,
		Totals:        toTotals(p.Totals),
		StreakDays:    p.StreakDays,
		NextMilestone: p.NextMilestone,
		Badges:        p.Badges,
		CreatedAt:     p.CreatedAt,
	}
	if out.Badges == nil {
		out.Badges = []string{}
	}
	if p.LastLogin != nil {
		out.LastLogin = p.LastLogin.String()
	}
	RespondOK(c, out)
}
