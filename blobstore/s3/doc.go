// Package s3 provides an S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "rulesets/")
//	repo := persistence.NewRepository(store)
//
// For concurrent writers wrap the store in a DDBCommitStore, which moves the
// CURRENT pointers into a DynamoDB table with conditional writes.
//
// # Features
//
//   - Multipart uploads through the transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
