package application

import (
	"strconv"
	"strings"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// esc escapes a dynamic value for MarkdownV2 templates.
// EscapeText leaves the backslash alone, so it is doubled first.
func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, strings.ReplaceAll(s, `\`, `\\`))
}

func renderProfile(tr Translator, clock *domain.CivilClock, p *model.Profile) string {
	lines := []string{
		tr.T("info_user_id", esc(strconv.FormatInt(p.UserID, 10))),
		tr.T("info_score", esc(strconv.FormatInt(p.Score, 10))),
		tr.T("info_register_date", esc(clock.Format(p.RegisteredAt))),
	}
	switch p.Tier {
	case model.TierBanned:
		lines = append(lines, tr.T("info_group_banned"))
	case model.TierMember:
		lines = append(lines, tr.T("info_group_member", esc(clock.FormatOr(p.ExpireTime, tr.T("info_no_expiry")))))
	default:
		lines = append(lines, tr.T("info_group_normal"))
	}
	lines = append(lines, tr.T("info_invite_count", esc(strconv.Itoa(p.InviteCount))))
	return strings.Join(lines, "\n")
}

func renderRedemption(tr Translator, clock *domain.CivilClock, r *model.RedemptionResult) string {
	var detail string
	if r.Code.Type == model.CodeTypeMembership {
		detail = tr.T("key_success_member", esc(clock.FormatOr(r.ExpireTime, tr.T("info_no_expiry"))))
	} else {
		detail = tr.T("key_success_points", esc(strconv.FormatInt(r.Score, 10)))
	}
	return tr.T("key_success") + "\n" + detail
}

func inviteLink(botUsername, code string) string {
	return "https://t.me/" + botUsername + "?start=" + code
}
