package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- ORDER_DETAIL TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS order_detail SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS order_id ON order_detail TYPE string;
    DEFINE FIELD IF NOT EXISTS platform ON order_detail TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS order_date_time ON order_detail TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS product_category ON order_detail TYPE string;
    DEFINE FIELD IF NOT EXISTS order_value ON order_detail TYPE float;
    DEFINE FIELD IF NOT EXISTS delivery_time_minutes ON order_detail TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS service_rating ON order_detail TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS customer_feedback ON order_detail TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS delivery_delay ON order_detail TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS refund_requested ON order_detail TYPE string DEFAULT 'No';
    DEFINE FIELD IF NOT EXISTS refund_amount ON order_detail TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS refund_reason ON order_detail TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS refund_date ON order_detail TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS order_detail_order_id ON order_detail FIELDS order_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS order_detail_category ON order_detail FIELDS product_category;

    -- ==========================================================================
    -- CHAT_HISTORY TABLE
    -- ==========================================================================
    -- timestamp is deliberately untyped: historical imports carry ISO strings,
    -- datetimes, and numeric epochs side by side; ordering happens in Go via a
    -- numeric sort key.
    DEFINE TABLE IF NOT EXISTS chat_history SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON chat_history TYPE string;
    DEFINE FIELD IF NOT EXISTS from ON chat_history TYPE string;
    DEFINE FIELD IF NOT EXISTS to ON chat_history TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON chat_history TYPE string;
    DEFINE FIELD IF NOT EXISTS timestamp ON chat_history FLEXIBLE TYPE any;

    DEFINE INDEX IF NOT EXISTS chat_history_user ON chat_history FIELDS user_id;

    -- ==========================================================================
    -- ALERT TABLE (human intervention queue)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS alert SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS alert_id ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS user_id ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS reason ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS last_message ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS priority ON alert TYPE string DEFAULT 'medium';
    DEFINE FIELD IF NOT EXISTS status ON alert TYPE string DEFAULT 'pending';
    DEFINE FIELD IF NOT EXISTS created_at ON alert TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS resolved_at ON alert TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS alert_alert_id ON alert FIELDS alert_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS alert_status ON alert FIELDS status;
`
