// Package algorand is the on-chain settlement rail. Payments are
// collected into the marketplace treasury account and paid out of it;
// per-identity account material is resolved through the vault. The
// in-memory ledger in the settlement package is the default rail, this
// one is switched on by configuration.
package algorand

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/client/algod"
	"github.com/algorand/go-algorand-sdk/crypto"
	"github.com/algorand/go-algorand-sdk/mnemonic"
	"github.com/algorand/go-algorand-sdk/transaction"

	"ticketmister-backend/codec"
	"ticketmister-backend/logger"
	"ticketmister-backend/vault"
)

// Vault data keys for one account's material. The passphrase is never
// stored in the clear; it is sealed under the server secret and
// unsealed here just before signing.
const (
	AccountAddress   = "account_address"
	PrivateKey       = "private_key"
	SealedPassphrase = "sealed_passphrase"
)

type Account struct {
	AccountAddress     string
	PrivateKey         string
	SecurityPassphrase string
}

// Rail moves marketplace base units as algo payments through the
// treasury account.
type Rail struct {
	treasury     *Account
	vault        *vault.Vault
	apiAddress   string
	apiKey       string
	secret       []byte
	amountFactor uint64
	minFee       uint64
}

func NewRail(treasury *Account, v *vault.Vault, apiAddress, apiKey, secret string, amountFactor, minFee uint64) *Rail {
	return &Rail{
		treasury:     treasury,
		vault:        v,
		apiAddress:   apiAddress,
		apiKey:       apiKey,
		secret:       []byte(secret),
		amountFactor: amountFactor,
		minFee:       minFee,
	}
}

// Receive moves amount from the identity's account into the treasury.
func (r *Rail) Receive(ctx context.Context, from string, amount uint64) error {
	account, err := r.lookupAccount(from)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if err := r.pay(ctx, account, r.treasury.AccountAddress, amount); err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

// Transfer pays amount from the treasury to the identity's account.
func (r *Rail) Transfer(ctx context.Context, to string, amount uint64) error {
	account, err := r.lookupAccount(to)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := r.pay(ctx, r.treasury, account.AccountAddress, amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

func (r *Rail) pay(ctx context.Context, from *Account, toAddr string, amount uint64) error {
	var headers []*algod.Header
	headers = append(headers, &algod.Header{Key: "X-API-Key", Value: r.apiKey})
	algodClient, err := algod.MakeClientWithHeaders(r.apiAddress, "", headers)
	if err != nil {
		return fmt.Errorf("pay: error connecting to algod: %w", err)
	}

	txParams, err := algodClient.SuggestedParams()
	if err != nil {
		return fmt.Errorf("pay: error getting suggested tx params: %w", err)
	}

	note := []byte(fmt.Sprintf("ticketmister settlement of %d units", amount))
	genID := txParams.GenesisID
	genHash := txParams.GenesisHash
	firstValidRound := txParams.LastRound
	lastValidRound := firstValidRound + 1000

	txn, err := transaction.MakePaymentTxnWithFlatFee(
		from.AccountAddress, toAddr, r.minFee, amount*r.amountFactor,
		firstValidRound, lastValidRound, note, "", genID, genHash)
	if err != nil {
		return fmt.Errorf("pay: error creating transaction: %w", err)
	}

	privateKey, err := mnemonic.ToPrivateKey(from.SecurityPassphrase)
	if err != nil {
		return fmt.Errorf("pay: error getting private key from mnemonic: %w", err)
	}

	txId, bytes, err := crypto.SignTransaction(privateKey, txn)
	if err != nil {
		return fmt.Errorf("pay: failed to sign transaction: %w", err)
	}
	logger.Infof(ctx, "Signed txid: %s", txId)

	txHeaders := append([]*algod.Header{}, &algod.Header{Key: "Content-Type", Value: "application/x-binary"})
	sendResponse, err := algodClient.SendRawTransaction(bytes, txHeaders...)
	if err != nil {
		return fmt.Errorf("pay: failed to send transaction: %w", err)
	}
	logger.Infof(ctx, "pay: submitted transaction %s", sendResponse.TxID)

	return nil
}

func (r *Rail) lookupAccount(id string) (*Account, error) {
	data, ok, err := r.vault.ReadSecret(id)
	if err != nil {
		return nil, fmt.Errorf("lookupAccount: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lookupAccount: no account material for %s", id)
	}

	address, addressOK := data[AccountAddress].(string)
	if !addressOK {
		return nil, fmt.Errorf("lookupAccount: account address not found for %s", id)
	}
	privateKey, privateKeyOK := data[PrivateKey].(string)
	if !privateKeyOK {
		return nil, fmt.Errorf("lookupAccount: private key not found for %s", id)
	}
	sealed, sealedOK := data[SealedPassphrase].(string)
	if !sealedOK {
		return nil, fmt.Errorf("lookupAccount: sealed passphrase not found for %s", id)
	}
	passphrase, err := codec.Decrypt(r.secret, sealed)
	if err != nil {
		return nil, fmt.Errorf("lookupAccount: unable to unseal passphrase for %s: %w", id, err)
	}

	return &Account{
		AccountAddress:     address,
		PrivateKey:         privateKey,
		SecurityPassphrase: string(passphrase),
	}, nil
}

// GenerateAccount mints a fresh account for a newly onboarded
// identity.
func GenerateAccount() (*Account, error) {
	account := crypto.GenerateAccount()
	paraphrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("generateAccount: error generating account: %w", err)
	}

	return &Account{
		AccountAddress:     account.Address.String(),
		PrivateKey:         string(account.PrivateKey),
		SecurityPassphrase: paraphrase,
	}, nil
}
