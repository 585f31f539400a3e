package app

import "serotonyl.ru/fuelboost/internal/db/postgres"

// Migrations — схема БД по версиям. Новые миграции только добавляются в конец.
var Migrations = []postgres.Migration{
	{Version: 1, Name: "operators", SQL: migration001Operators},
	{Version: 2, Name: "wallets", SQL: migration002Wallets},
	{Version: 3, Name: "promotions", SQL: migration003Promotions},
	{Version: 4, Name: "admin", SQL: migration004Admin},
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Operators = `
CREATE TABLE IF NOT EXISTS operators (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration002Wallets = `
CREATE TABLE IF NOT EXISTS wallets (
    owner_id BIGINT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id BIGSERIAL PRIMARY KEY,
    wallet_id BIGINT NOT NULL REFERENCES wallets(owner_id),
    amount BIGINT NOT NULL CHECK (amount <> 0),
    kind TEXT NOT NULL CHECK (kind IN ('deposit', 'spend')),
    metadata JSONB NOT NULL DEFAULT '{}',
    request_id UUID UNIQUE,
    balance_after BIGINT NOT NULL CHECK (balance_after >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK ((kind = 'deposit' AND amount > 0) OR (kind = 'spend' AND amount < 0))
);
CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet_id ON wallet_transactions(wallet_id, id DESC);
`

var migration003Promotions = `
CREATE TABLE IF NOT EXISTS promotion_tiers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    price BIGINT NOT NULL CHECK (price > 0),
    duration_hours INTEGER NOT NULL CHECK (duration_hours >= 1),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS station_promotions (
    id BIGSERIAL PRIMARY KEY,
    station_id BIGINT NOT NULL,
    tier_id TEXT NOT NULL REFERENCES promotion_tiers(id),
    owner_id BIGINT NOT NULL REFERENCES wallets(owner_id),
    request_id UUID UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    end_time TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'expired', 'cancelled')),
    reminded_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (end_time > created_at)
);
CREATE INDEX IF NOT EXISTS idx_station_promotions_station ON station_promotions(station_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_station_promotions_active ON station_promotions(end_time) WHERE status = 'active';
`

var migration004Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE NOT NULL,
    authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time DESC);
`
