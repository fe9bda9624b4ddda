package config

const EnvPrefix = "RISBOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "RISBOW_APP_ENV"
	EnvPort              = "RISBOW_APP_PORT"
	EnvDBDSN             = "RISBOW_DB_DSN"
	EnvDBHost            = "RISBOW_DB_HOST"
	EnvDBUser            = "RISBOW_DB_USER"
	EnvDBName            = "RISBOW_DB_NAME"
	EnvRedisURL          = "RISBOW_REDIS_URL"
	EnvJWTSecret         = "RISBOW_JWT_SECRET"
	EnvJWTIssuer         = "RISBOW_JWT_ISSUER"
	EnvGCPProjectID      = "RISBOW_GCP_PROJECT_ID"
	EnvGCSBucket         = "RISBOW_GCS_BUCKET_NAME"
	EnvGCSDownloadExpiry = "RISBOW_GCS_DOWNLOAD_URL_EXPIRY"
	EnvPackingMaxVideoMB = "RISBOW_PACKING_MAX_VIDEO_MB"
	EnvPubSubOrdersTopic = "RISBOW_PUBSUB_ORDERS_TOPIC"
	EnvPubSubReturnTopic = "RISBOW_PUBSUB_RETURNS_TOPIC"
	EnvPubSubRefundTopic = "RISBOW_PUBSUB_REFUNDS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
