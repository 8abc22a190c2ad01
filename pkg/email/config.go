package email

// Driver names an email backend.
type Driver string

const (
	DriverPostmark Driver = "postmark"
	DriverSES      Driver = "ses"
	DriverDev      Driver = "dev"
)

// Config holds email service configuration.
// Provider credentials are only required by the driver that uses them, so
// development environments can run with the dev driver and no tokens.
// SenderEmail is required as it establishes the default sender identity.
type Config struct {
	Driver               Driver `env:"EMAIL_DRIVER" envDefault:"dev"`
	SenderEmail          string `env:"EMAIL_FROM,required"`
	ReplyTo              string `env:"EMAIL_REPLY_TO"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SESRegion            string `env:"AWS_SES_REGION" envDefault:"us-east-2"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
