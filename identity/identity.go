// Package identity onboards marketplace callers. A caller proves
// control of a phone number with a one-time code, then gets a
// settlement-rail account provisioned under their identity. The core
// never touches any of this; it only ever sees the opaque identity
// string.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/pquerna/otp/totp"

	"ticketmister-backend/algorand"
	"ticketmister-backend/codec"
	"ticketmister-backend/logger"
	"ticketmister-backend/model"
	"ticketmister-backend/twilio"
	"ticketmister-backend/vault"
)

const (
	otpMessage = "OTP to verify your number at ticketmister is: %s"
	otpTTL     = time.Minute * 5

	StatusOTPSent  = "OTP_SUCCESSFULLY_SENT"
	StatusVerified = "VERIFIED"
)

type Service struct {
	sender twilio.Sender
	client *redis.Client
	vault  *vault.Vault
	secret string
}

func NewService(sender twilio.Sender, client *redis.Client, v *vault.Vault, secret string) *Service {
	return &Service{
		sender: sender,
		client: client,
		vault:  v,
		secret: secret,
	}
}

// Connect sends a one-time code to the caller's phone and parks it in
// redis until Verify consumes it.
func (s *Service) Connect(ctx context.Context, user *model.MarketplaceUser) (*model.Auth, error) {
	if user == nil || user.PhoneNumber == "" {
		return nil, fmt.Errorf("connect: phone number cannot be empty: %w", model.ErrInvalidArgument)
	}

	code, err := totp.GenerateCode(s.secret, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("connect: unable to generate otp: %s", err)
	}

	sid, err := s.sender.Send(user.PhoneNumber, fmt.Sprintf(otpMessage, code))
	if err != nil {
		return nil, fmt.Errorf("connect: unable to send otp to: %s: %s", user.PhoneNumber, err)
	}

	err = s.client.Set(otpKey(user.PhoneNumber), code, otpTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("connect: unable to save otp for: %s, sid: %v: %s", user.PhoneNumber, sid, err)
	}

	logger.Infof(ctx, "connect: otp sent for %s", user.PhoneNumber)
	return &model.Auth{Status: StatusOTPSent}, nil
}

// Verify checks the code and, on first verification, provisions a
// settlement-rail account for the identity. The key material goes to
// the vault with the passphrase encrypted under the server secret.
func (s *Service) Verify(ctx context.Context, uid string, user *model.MarketplaceUser, otp string) (*model.MarketplaceUser, error) {
	if user == nil || user.PhoneNumber == "" || otp == "" {
		return nil, fmt.Errorf("verify: phone number and otp are required: %w", model.ErrInvalidArgument)
	}

	stored, err := s.client.Get(otpKey(user.PhoneNumber)).Result()
	if err == redis.Nil {
		return nil, ErrOTPExpired
	}
	if err != nil {
		return nil, fmt.Errorf("verify: unable to read otp for %s: %s", user.PhoneNumber, err)
	}
	if stored != otp {
		return nil, ErrOTPMismatch
	}
	s.client.Del(otpKey(user.PhoneNumber))

	if _, exists, err := s.vault.ReadSecret(uid); err == nil && exists {
		user.IsValid = true
		return user, nil
	}

	account, err := algorand.GenerateAccount()
	if err != nil {
		return nil, fmt.Errorf("verify: unable to provision account: %w", err)
	}

	sealed, err := codec.Encrypt([]byte(s.secret), []byte(account.SecurityPassphrase))
	if err != nil {
		return nil, fmt.Errorf("verify: unable to seal passphrase: %w", err)
	}

	data := map[string]interface{}{
		algorand.AccountAddress:   account.AccountAddress,
		algorand.PrivateKey:       account.PrivateKey,
		algorand.SealedPassphrase: sealed,
	}
	if err := s.vault.WriteSecret(uid, data); err != nil {
		return nil, fmt.Errorf("verify: unable to store account material: %w", err)
	}

	user.Account = account.AccountAddress
	user.IsValid = true
	return user, nil
}

func otpKey(phone string) string {
	return fmt.Sprintf("ticketmister:otp:%s", phone)
}
