// Package relay is the chat relay the authorizer guards.
//
// A connection is registered when an authorized websocket opens and
// removed when it closes. Messages arriving on a registered connection are
// stored and published; the Broadcaster delivers every published message to
// every registered connection through a Sender, which in the server is the
// websocket Hub.
//
// Each collaborator has a memory implementation and a Redis one:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	registry := relay.NewRedisRegistry(rdb)
//	store := relay.NewRedisMessageStore(rdb)
//	publisher := relay.NewRedisPublisher(rdb)
package relay
