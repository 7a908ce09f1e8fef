// Package upload posts files to a Qiniu-style form upload endpoint.
//
// Each request is a multipart/form-data POST with three fields: "key" (the
// object key), "token" (from a TokenSource such as *token.Signer) and "file".
// The service answers with JSON containing at least "key"; the client turns
// that into a resource path, prefixed with the configured domain if any.
//
// # Basic Usage
//
//	signer, _ := token.New(accessKey, secretKey, token.WithBucket("photos"))
//	client := upload.New(signer, upload.WithDomain("https://cdn.example.com"))
//
//	res, err := client.Upload(ctx, upload.File("./cat.jpg"))
//	// res.Resource: https://cdn.example.com/<key>
//
// Streams that are already open use Reader:
//
//	res, err := client.Upload(ctx, upload.Reader("report.csv", buf))
//
// # Errors
//
// Failures are never retried. Network errors and non-2xx replies are
// *TransportError (errors.Is(err, ErrTransport)); a reply without a key is
// ErrResponseFormat; token configuration errors are passed through from the
// TokenSource.
package upload
