package kafka

import (
	"flag"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/tools/tls"
)

// KafkaNet holds the network security settings shared by our kafka clients
type KafkaNet struct {
	tlsEnabled    bool
	tlsSkipVerify bool
	tlsClientCert string
	tlsClientKey  string
	saslEnabled   bool
	saslMechanism string
	saslUsername  string
	saslPassword  string
}

// Configure applies the settings to a sarama config
func (k *KafkaNet) Configure(config *sarama.Config) error {
	if k.tlsEnabled {
		tlsConfig, err := tls.NewConfig(k.tlsClientCert, k.tlsClientKey)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %s", err)
		}

		config.Net.TLS.Enable = true
		config.Net.TLS.Config = tlsConfig
		config.Net.TLS.Config.InsecureSkipVerify = k.tlsSkipVerify
	}

	if k.saslEnabled {
		switch k.saslMechanism {
		case "SCRAM-SHA-256":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
			config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA256} }
		case "SCRAM-SHA-512":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
			config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA512} }
		case "PLAINTEXT":
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		default:
			return fmt.Errorf("failed to recognize sasl-mechanism %q", k.saslMechanism)
		}
		config.Net.SASL.Enable = true
		config.Net.SASL.User = k.saslUsername
		config.Net.SASL.Password = k.saslPassword
	}
	return nil
}

// ConfigNet registers the network security flags on the flagset
func ConfigNet(fs *flag.FlagSet) *KafkaNet {
	kn := &KafkaNet{}
	fs.BoolVar(&kn.tlsEnabled, "tls-enabled", false, "Whether to enable TLS")
	fs.BoolVar(&kn.tlsSkipVerify, "tls-skip-verify", false, "Whether to skip TLS server cert verification")
	fs.StringVar(&kn.tlsClientCert, "tls-client-cert", "", "Client cert for client authentication (use with -tls-enabled and -tls-client-key)")
	fs.StringVar(&kn.tlsClientKey, "tls-client-key", "", "Client key for client authentication (use with -tls-enabled and -tls-client-cert)")
	fs.BoolVar(&kn.saslEnabled, "sasl-enabled", false, "Whether to enable SASL")
	fs.StringVar(&kn.saslMechanism, "sasl-mechanism", "", "The SASL mechanism configuration (possible values: SCRAM-SHA-256, SCRAM-SHA-512, PLAINTEXT)")
	fs.StringVar(&kn.saslUsername, "sasl-username", "", "Username for client authentication (use with -sasl-enabled and -sasl-password)")
	fs.StringVar(&kn.saslPassword, "sasl-password", "", "Password for client authentication (use with -sasl-enabled and -sasl-username)")
	return kn
}
