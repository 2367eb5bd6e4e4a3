//go:generate mockgen -source=../cache_store.go       -destination=./mock_cache_store.go       -package=mocks
//go:generate mockgen -source=../metadata_lookup.go   -destination=./mock_metadata_lookup.go   -package=mocks
//go:generate mockgen -source=../event_publisher.go   -destination=./mock_event_publisher.go   -package=mocks
//go:generate mockgen -source=../record_validator.go  -destination=./mock_record_validator.go  -package=mocks
//go:generate mockgen -source=../message_consumer.go  -destination=./mock_message_consumer.go  -package=mocks
//go:generate mockgen -source=../services.go          -destination=./mock_services.go          -package=mocks

package mocks
