// Package commands registers the files.*, email.* and document.* commands on
// an rpc.Router.
//
//	router := rpc.NewRouter(rpc.WithErrorMappings(commands.ErrorMappings()...))
//	commands.Register(router, commands.Deps{
//		Files:     ingestService,
//		Email:     emailClient,
//		Documents: documentClient,
//		Logger:    log,
//	})
//
// Payload shapes follow the calling services: upload buffers arrive as
// base64 strings or Node.js Buffer objects, and email recipients may be a
// single address or a list. Best-effort commands (files.delete, files.exists,
// email.send, email.verify) report failure in the result body instead of an
// error envelope.
package commands
