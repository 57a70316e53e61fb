package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"clawnch-scanner/internal/solana"
)

func newWalletCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect or create the platform wallet",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the platform wallet address and balance",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := e.load()
				if err != nil {
					return err
				}
				defer logger.Sync()

				signer, err := loadSigner(cfg.WalletPrivateKey)
				if err != nil {
					return err
				}
				address := signer.PublicKey().String()

				rpc := solana.NewHTTPClient(cfg.RPCURL)
				lamports, err := rpc.GetBalance(cmd.Context(), address)
				if err != nil {
					return fmt.Errorf("read balance: %w", err)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nbalance: %.6f SOL (%d lamports)\n",
					address, float64(lamports)/1e9, lamports)
				return err
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Generate a keypair and print its address and base58 secret",
			RunE: func(cmd *cobra.Command, _ []string) error {
				kp, err := solana.NewKeypair()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nPLATFORM_WALLET_PRIVATE_KEY=%s\n",
					kp.PublicKey(), kp.SecretBase58())
				return err
			},
		},
	)

	return cmd
}
