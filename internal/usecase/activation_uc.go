package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
)

var _ ActivationUseCase = (*activationUC)(nil)

// MaxProvisionBatch caps how many codes one provisioning call may create.
const MaxProvisionBatch = 500

// ProvisionRequest describes a batch of identical activation codes.
type ProvisionRequest struct {
	Type       model.CodeType
	Count      int
	ExpireDays *int
	Points     *int64
}

type ActivationUseCase interface {
	// Redeem consumes the code for userID and applies its grant in one transaction.
	Redeem(ctx context.Context, code string, userID int64) (*model.RedemptionResult, error)
	// Provision creates Count fresh, unused codes.
	Provision(ctx context.Context, req ProvisionRequest) ([]*model.ActivationCode, error)
}

type activationUC struct {
	users   repository.UserRepository
	codes   repository.ActivationCodeRepository
	tm      repository.TransactionManager
	clock   *domain.CivilClock
	newCode func() (string, error)
	log     *zerolog.Logger
}

func NewActivationUseCase(users repository.UserRepository, codes repository.ActivationCodeRepository, tm repository.TransactionManager, clock *domain.CivilClock, logger *zerolog.Logger) *activationUC {
	return &activationUC{
		users:   users,
		codes:   codes,
		tm:      tm,
		clock:   clock,
		newCode: generateActivationCode,
		log:     logger,
	}
}

func (uc *activationUC) Redeem(ctx context.Context, code string, userID int64) (*model.RedemptionResult, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Redeem")()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidOrUsedCode
	}
	now := uc.clock.Now()

	var res *model.RedemptionResult
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := uc.users.FindByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotRegistered
			}
			return err
		}

		consumed, err := uc.codes.Consume(ctx, tx, code, userID, now)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidOrUsedCode
			}
			return err
		}

		r := &model.RedemptionResult{Code: *consumed, Tier: user.Tier, ExpireTime: user.ExpireTime, Score: user.Score}
		switch consumed.Type {
		case model.CodeTypeMembership:
			// without a duration only the tier changes; a running expiry is kept
			expire := user.ExpireTime
			if consumed.ExpireDays != nil {
				t := uc.clock.MidnightPlusDays(now, *consumed.ExpireDays)
				expire = &t
			}
			if err := uc.users.SetMembership(ctx, tx, userID, model.TierMember, expire); err != nil {
				return err
			}
			r.Tier = model.TierMember
			r.ExpireTime = expire
		case model.CodeTypePoints:
			if consumed.Points == nil || *consumed.Points <= 0 {
				return fmt.Errorf("points code %s without amount: %w", consumed.Code, domain.ErrInvalidArgument)
			}
			score, err := uc.users.AddScore(ctx, tx, userID, *consumed.Points)
			if err != nil {
				return err
			}
			r.Score = score
		default:
			return fmt.Errorf("code %s has unknown type %d: %w", consumed.Code, consumed.Type, domain.ErrInvalidArgument)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("tg_id", userID).
		Str("code_type", res.Code.Type.String()).
		Msg("activation code redeemed")
	return res, nil
}

func (uc *activationUC) Provision(ctx context.Context, req ProvisionRequest) ([]*model.ActivationCode, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Provision")()

	if req.Count <= 0 || req.Count > MaxProvisionBatch {
		return nil, fmt.Errorf("count must be between 1 and %d: %w", MaxProvisionBatch, domain.ErrInvalidArgument)
	}
	now := uc.clock.Now()

	out := make([]*model.ActivationCode, 0, req.Count)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for i := 0; i < req.Count; i++ {
			code, err := uc.newCode()
			if err != nil {
				return fmt.Errorf("generate activation code: %w", err)
			}
			ac := &model.ActivationCode{
				ID:         uuid.NewString(),
				Code:       code,
				Type:       req.Type,
				ExpireDays: req.ExpireDays,
				Points:     req.Points,
				CreatedAt:  now,
			}
			if err := ac.Validate(); err != nil {
				return err
			}
			if err := uc.codes.Save(ctx, tx, ac); err != nil {
				return err
			}
			out = append(out, ac)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
