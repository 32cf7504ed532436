package config

import (
	"github.com/spf13/viper"
)

const (
	DBURL = "database.mysql"

	FirebaseProjectID             = "firebase.project_id"
	FirebaseServiceAccountKeyPath = "firebase.service_account_key_path"

	TreasuryAddress            = "algorand.treasury_address"
	TreasurySecurityParaphrase = "algorand.treasury_security_paraphrase"
	ApiAddress                 = "algorand.api_address"
	ApiKey                     = "algorand.api_key"
	AmountFactor               = "algorand.amount_factor"
	MinFee                     = "algorand.min_fee"

	VaultAddress   = "vault.address"
	VaultToken     = "vault.token"
	VaultUnSealKey = "vault.unseal_key"
	UserPath       = "vault.user_path"

	Port               = "server.port"
	JWTOfflineInterval = "server.jwt_offline_interval"
	Secret             = "server.secret"

	RewardRatePercent = "market.reward_rate_percent"
	RewardOnResale    = "market.reward_on_resale"
	GiftUnlists       = "market.gift_unlists"
	SettlementRail    = "market.settlement_rail"

	RedisAddress  = "redis.address"
	RedisPassword = "redis.password"
	RedisDB       = "redis.db"

	RabbitURL = "rabbit.url"

	TwilioAccountSID = "twilio.account_sid"
	TwilioAuthToken  = "twilio.auth_token"
	TwilioURL        = "twilio.url"
	TwilioFrom       = "twilio.from"
)

func init() {
	viper.AutomaticEnv()
	viper.SetDefault(Port, "9000")
	viper.SetDefault(JWTOfflineInterval, 120)
	viper.SetDefault(RewardRatePercent, 5)
	viper.SetDefault(RewardOnResale, false)
	viper.SetDefault(GiftUnlists, true)
	viper.SetDefault(SettlementRail, "ledger")
}
