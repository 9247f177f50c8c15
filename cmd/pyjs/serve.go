package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/pyjs/server"
)

var flagAddr string

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, globals, err := loadProject(flagDir)
		if err != nil {
			return err
		}
		return server.NewLSP(server.NewWorkspace(m, globals)).Run()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transpile service over Connect (HTTP/JSON)",
	Example: `  pyjs serve --addr :4567
  curl -H 'Content-Type: application/json' \
    -d '{"source": "def add(a, b):\n    return a + b\n"}' \
    http://localhost:4567/pyjs.v1.TranspileService/Transpile`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, globals, err := loadProject(flagDir)
		if err != nil {
			return err
		}
		var opts []server.ServerOption
		st, err := openStore(m, flagNoCache)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
			opts = append(opts, server.WithStore(st))
		}

		srv := server.New(server.NewWorkspace(m, globals), opts...)
		defer srv.Stop()
		return srv.ListenAndServe(flagAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":4567", "listen address")
	serveCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "bypass the bundle cache")
}
