package ethereum

// ERC20ABI is the slice of the ERC20 ABI the preparer and wallet need.
const ERC20ABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Permit2ABI covers the allowance probe and the batched permit
// redemption on the canonical Permit2 contract.
const Permit2ABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "", "type": "address"},
			{"internalType": "address", "name": "", "type": "address"},
			{"internalType": "address", "name": "", "type": "address"}
		],
		"name": "allowance",
		"outputs": [
			{"internalType": "uint160", "name": "amount", "type": "uint160"},
			{"internalType": "uint48", "name": "expiration", "type": "uint48"},
			{"internalType": "uint48", "name": "nonce", "type": "uint48"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{
				"components": [
					{
						"components": [
							{"internalType": "address", "name": "token", "type": "address"},
							{"internalType": "uint160", "name": "amount", "type": "uint160"},
							{"internalType": "uint48", "name": "expiration", "type": "uint48"},
							{"internalType": "uint48", "name": "nonce", "type": "uint48"}
						],
						"internalType": "struct IAllowanceTransfer.PermitDetails[]",
						"name": "details",
						"type": "tuple[]"
					},
					{"internalType": "address", "name": "spender", "type": "address"},
					{"internalType": "uint256", "name": "sigDeadline", "type": "uint256"}
				],
				"internalType": "struct IAllowanceTransfer.PermitBatch",
				"name": "permitBatch",
				"type": "tuple"
			},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "permit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// PositionManagerABI is the mint entry point of the nonfungible
// position manager.
const PositionManagerABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "token0", "type": "address"},
					{"internalType": "address", "name": "token1", "type": "address"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "int24", "name": "tickLower", "type": "int24"},
					{"internalType": "int24", "name": "tickUpper", "type": "int24"},
					{"internalType": "uint256", "name": "amount0Desired", "type": "uint256"},
					{"internalType": "uint256", "name": "amount1Desired", "type": "uint256"},
					{"internalType": "uint256", "name": "amount0Min", "type": "uint256"},
					{"internalType": "uint256", "name": "amount1Min", "type": "uint256"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "deadline", "type": "uint256"}
				],
				"internalType": "struct INonfungiblePositionManager.MintParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "mint",
		"outputs": [
			{"internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"internalType": "uint128", "name": "liquidity", "type": "uint128"},
			{"internalType": "uint256", "name": "amount0", "type": "uint256"},
			{"internalType": "uint256", "name": "amount1", "type": "uint256"}
		],
		"stateMutability": "payable",
		"type": "function"
	}
]`
