package cache

import "foundrycore/logging"

var evictionLossLog = logging.For("cache.eviction")
