package workflow

import (
	"time"

	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/notify"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const welcomeMailSubject string = "Welcome to the app"
const welcomeGoogleBody string = "Hi {$.user.firstName},\n\nThanks for signing up with Google! You're all set to explore the platform."
const welcomeLocalBody string = "Hi {$.user.firstName},\n\nThanks for signing up. Please verify your email to get started."

const followupMailSubject string = "Thanks for staying with us!"
const followupMailBody string = "Hi {$.user.firstName},\n\nIt's been a couple of days since you joined, and we just wanted to say thank you for sticking around. We hope you're enjoying the experience!"
const followupSmsBody string = "Hi {$.user.firstName}, thanks for staying with us!"

var _ engine.Definition = new(UserSignup)

type UserSignup struct {
	users         persistence.UserDao
	mailer        notify.Mailer
	sms           notify.SmsSender
	followupDelay time.Duration
}

func NewUserSignup(users persistence.UserDao, mailer notify.Mailer, sms notify.SmsSender, followupDelay time.Duration) *UserSignup {
	return &UserSignup{
		users:         users,
		mailer:        mailer,
		sms:           sms,
		followupDelay: followupDelay,
	}
}

func (w *UserSignup) Name() string {
	return "on-user-signup"
}

func (w *UserSignup) Event() string {
	return model.EVENT_USER_SIGNUP
}

func (w *UserSignup) Execute(run *engine.Run) error {
	email := run.Event().StringData("email")

	user, err := engine.RunStep(run, "get-user", func() (model.User, error) {
		u, err := w.users.GetByEmail(email)
		if err != nil {
			return model.User{}, err
		}
		if u == nil {
			return model.User{}, engine.NewNonRetriableError("user no longer exists " + email)
		}
		return *u, nil
	})
	if err != nil {
		return err
	}

	_, err = engine.RunStep(run, "send-welcome-email", func() (struct{}, error) {
		template := welcomeLocalBody
		if user.AuthProvider == model.AUTH_PROVIDER_GOOGLE {
			template = welcomeGoogleBody
		}
		body := util.ResolveTemplate(map[string]any{"user": toMap(user)}, template)
		result := w.mailer.Send(user.Email, welcomeMailSubject, body)
		if !result.Success {
			logger.Warn("welcome mail not delivered", zap.String("to", user.Email), zap.String("error", result.Error))
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	if err := run.Sleep("wait-2-days", w.followupDelay); err != nil {
		return err
	}

	userAfterDelay, err := engine.RunStep(run, "recheck-user", func() (model.User, error) {
		u, err := w.users.GetByEmail(email)
		if err != nil {
			return model.User{}, err
		}
		if u == nil {
			return model.User{}, engine.NewNonRetriableError("user not found after delay " + email)
		}
		return *u, nil
	})
	if err != nil {
		return err
	}

	_, err = engine.RunStep(run, "send-followup-email", func() (struct{}, error) {
		body := util.ResolveTemplate(map[string]any{"user": toMap(userAfterDelay)}, followupMailBody)
		result := w.mailer.Send(userAfterDelay.Email, followupMailSubject, body)
		if !result.Success {
			logger.Warn("followup mail not delivered", zap.String("to", userAfterDelay.Email), zap.String("error", result.Error))
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	_, err = engine.RunStep(run, "send-followup-sms", func() (struct{}, error) {
		if userAfterDelay.PhoneNumber == "" {
			logger.Info("user has no phone number, skipping sms", zap.String("email", userAfterDelay.Email))
			return struct{}{}, nil
		}
		body := util.ResolveTemplate(map[string]any{"user": toMap(userAfterDelay)}, followupSmsBody)
		_, err := w.sms.Send(userAfterDelay.PhoneNumber, body)
		return struct{}{}, err
	})
	return err
}
