package schema

import _ "embed"

// ConsumerV1Schema contains the JSON schema for consumer configuration files.
//
//go:embed consumer.v1.json
var ConsumerV1Schema []byte
